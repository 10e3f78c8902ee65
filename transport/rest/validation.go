package rest

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/rocketscienceinc/fourinrow-backend/internal/entity"
)

func newValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	validate.RegisterStructValidation(validateCreateGame, createGameRequest{})

	return validate
}

// validateCreateGame checks that the line target fits the board once defaults are applied.
func validateCreateGame(sl validator.StructLevel) {
	req, _ := sl.Current().Interface().(createGameRequest)

	game := entity.NewGame("", req.Width, req.Height, req.LineTarget)
	if game.LineTarget > game.Width || game.LineTarget > game.Height {
		sl.ReportError(req.LineTarget, "line_target", "LineTarget", "fits_board", "")
	}
}
