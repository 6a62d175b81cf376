package validation

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// icpPattern matches professional license identifiers: digits only,
// six to twelve characters.
var icpPattern = regexp.MustCompile(`^[0-9]{6,12}$`)

// Register installs the custom binding rules on gin's validator engine.
// Call once at startup before any request binds.
func Register() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterValidation("icp", func(fl validator.FieldLevel) bool {
		return icpPattern.MatchString(fl.Field().String())
	})
}

// ValidICP reports whether the value is a well-formed license identifier.
func ValidICP(s string) bool {
	return icpPattern.MatchString(s)
}
