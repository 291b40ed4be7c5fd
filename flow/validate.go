package flow

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validatorOnce sync.Once
	validatorInst *validator.Validate
)

// validatorInstance returns the shared validator, registering the
// flow_id struct-tag validation once.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()
		_ = v.RegisterValidation("flow_id", func(fl validator.FieldLevel) bool {
			return flowIDPattern.MatchString(fl.Field().String())
		})
		validatorInst = v
	})
	return validatorInst
}

// structFindings runs go-playground/validator's struct-tag validation
// over f and converts any violation into a Finding. This catches the
// required-field and format checks a generic validator expresses well;
// DAG acyclicity, guard membership, and cross-field edge checks are not
// expressible as struct tags and are layered on top in lintFlow.
func structFindings(f Flow) []Finding {
	err := validatorInstance().Struct(f)
	if err == nil {
		return nil
	}
	var findings []Finding
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			findings = append(findings, Finding{
				Code:     "STRUCT_" + strings.ToUpper(fe.Tag()),
				Message:  fmt.Sprintf("%s: %s", fe.Namespace(), fe.Tag()),
				Severity: SeverityError,
			})
		}
	}
	return findings
}
