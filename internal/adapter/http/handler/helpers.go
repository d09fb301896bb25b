package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/egmaziero/ktrain/internal/ml/textclf"
)

// ModelListQuery is the query string of GET /api/v1/models. Limit defaults
// to 20 and may not exceed 100; out-of-range values are rejected rather than
// clamped.
type ModelListQuery struct {
	Limit  int `form:"limit,default=20" binding:"min=1,max=100"`
	Offset int `form:"offset,default=0" binding:"min=0"`
}

// bindModelListQuery parses the listing window, answering 400 when it is
// malformed.
func bindModelListQuery(c *gin.Context) (ModelListQuery, bool) {
	var q ModelListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		HandleInvalidRequest(c, "limit must be 1-100 and offset must be non-negative")
		return q, false
	}
	return q, true
}

// modelIDParam parses the :id path segment as a model UUID, answering 400
// when it is not one.
func modelIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		HandleInvalidUUID(c, "model id")
		return uuid.Nil, false
	}
	return id, true
}

// ValidModelKinds contains the classifier kinds accepted by the train endpoint.
var ValidModelKinds = map[string]bool{
	string(textclf.KindNBSVM):  true,
	string(textclf.KindLogReg): true,
}

// IsValidModelKind checks if the given kind is valid. An empty kind selects
// the default and is accepted.
func IsValidModelKind(kind string) bool {
	return kind == "" || ValidModelKinds[kind]
}
