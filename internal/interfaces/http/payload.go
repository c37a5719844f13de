package http

import (
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// scorePayload 是 POST /api/leaderboard 的请求体。
// 字段使用指针以区分缺失与零值。
type scorePayload struct {
	PlayerName *string `json:"player_name" binding:"required"`
	Score      *int64  `json:"score" binding:"required"`
}

func (p *scorePayload) validate() string {
	if strings.TrimSpace(*p.PlayerName) == "" {
		return "player_name must not be blank"
	}
	return ""
}

var fieldTypeErrors = map[string]string{
	"player_name": "player_name must be a string",
	"score":       "score must be a non-negative integer",
}

// bindingErrorDetail 将绑定错误转换为可读的 detail 文本。
func bindingErrorDetail(err error) string {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		verrs     validator.ValidationErrors
	)

	switch {
	case errors.Is(err, io.EOF):
		return "request body must not be empty"
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return "request body must be valid JSON"
	case errors.As(err, &typeErr):
		if detail, ok := fieldTypeErrors[typeErr.Field]; ok {
			return detail
		}
		return "request body must be a JSON object"
	case errors.As(err, &verrs) && len(verrs) > 0:
		return jsonFieldName(verrs[0].StructField()) + " is required"
	default:
		return "invalid request body"
	}
}

func jsonFieldName(structField string) string {
	f, ok := reflect.TypeOf(scorePayload{}).FieldByName(structField)
	if !ok {
		return structField
	}
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	return name
}
