package validation

import (
	"errors"
	"regexp"
	"strings"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/yourorg/wanderplan/internal/models"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// ValidateRegister checks a sign-up request. Passwords are capped at 72
// bytes, the most bcrypt will hash.
func ValidateRegister(req models.RegisterRequest) error {
	err := ozzo.ValidateStruct(&req,
		ozzo.Field(&req.Username, ozzo.Required, ozzo.Length(3, 50), ozzo.Match(usernamePattern)),
		ozzo.Field(&req.Email, ozzo.Required, ozzo.Length(3, 255), ozzo.By(emailLike)),
		ozzo.Field(&req.Password, ozzo.Required, ozzo.Length(8, 72)),
		ozzo.Field(&req.Name, ozzo.Length(0, 100)),
	)
	return fromOzzo(err)
}

func emailLike(value interface{}) error {
	s, _ := value.(string)
	at := strings.LastIndex(s, "@")
	if at < 1 || at == len(s)-1 || strings.ContainsAny(s, " \t") {
		return errors.New("must be a valid email address")
	}
	return nil
}
