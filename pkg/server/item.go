package server

import (
	"reflect"
	"strings"

	"github.com/gabstv/echobox/api"
	"github.com/go-playground/validator/v10"
)

// postRequest is the bound form of api.Item. Pointer fields tell an
// absent (or null) key apart from an empty string, which is valid.
type postRequest struct {
	Field1 *string `json:"field1" form:"field1" binding:"required"`
	Field2 *string `json:"field2" form:"field2" binding:"required"`
}

func (p *postRequest) item() api.Item {
	return api.Item{
		Field1: *p.Field1,
		Field2: *p.Field2,
	}
}

// validationDetail turns a bind error into the 422 detail list.
func validationDetail(err error) []api.ErrorDetail {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []api.ErrorDetail{{
			Loc:  []string{"body"},
			Msg:  err.Error(),
			Type: "value_error.jsondecode",
		}}
	}
	rt := reflect.TypeOf(postRequest{})
	details := make([]api.ErrorDetail, 0, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		if sf, ok := rt.FieldByName(fe.StructField()); ok {
			if tag := strings.Split(sf.Tag.Get("json"), ",")[0]; tag != "" {
				name = tag
			}
		}
		d := api.ErrorDetail{
			Loc:  []string{"body", name},
			Msg:  "field " + fe.Tag(),
			Type: "value_error." + fe.Tag(),
		}
		if fe.Tag() == "required" {
			d.Type = "value_error.missing"
		}
		details = append(details, d)
	}
	return details
}
