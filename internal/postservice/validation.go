package postservice

import (
	"github.com/sushihentaime/blogboard/internal/common"
)

const maxTitleLength = 200

func validateTitle(v *common.Validator, title string) {
	v.Check(v.NotBlank(title), "title", "must be provided")
	v.Check(v.CheckStringLength(title, 0, maxTitleLength), "title", "must not be more than 200 characters long")
}

func validateContent(v *common.Validator, content string) {
	v.Check(v.NotBlank(content), "content", "must be provided")
}

func validateInt(v *common.Validator, num int, name string) {
	v.Check(num > 0, name, "must be greater than zero")
}
