package userservice

import (
	"regexp"

	"github.com/sushihentaime/blogboard/internal/common"
)

var (
	UsernameRX = regexp.MustCompile("^[a-zA-Z0-9]+$")
)

func validateUsername(v *common.Validator, username string) {
	v.Check(username != "", "username", "must be provided")
	v.Check(v.CheckStringLength(username, 3, 25), "username", "must be between 3 and 25 characters long")
	v.Check(UsernameRX.MatchString(username), "username", "must only contain letters and numbers")
}

// bcrypt only reads the first 72 bytes of a password.
func validatePassword(v *common.Validator, password string) {
	v.Check(password != "", "password", "must be provided")
	v.Check(len(password) <= 72, "password", "must not be more than 72 bytes long")
}

func ValidateToken(v *common.Validator, token string) {
	v.Check(token != "", "token", "must be provided")
	v.Check(len(token) == SessionTokenLength, "token", "invalid token")
}
