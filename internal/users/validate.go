package users

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	emailRegexp    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	cpfRegexp      = regexp.MustCompile(`^\d{3}\.\d{3}\.\d{3}-\d{2}$`)
	telefoneRegexp = regexp.MustCompile(`^\(\d{2}\) \d{5}-\d{4}$`)
)

type ValidationError struct {
	Field   string
	Message string
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	msgs := make([]string, len(ve))
	for i, e := range ve {
		msgs[i] = e.Field + ": " + e.Message
	}
	return strings.Join(msgs, "; ")
}

// Fields groups the messages by field name, the shape the API answers
// 400 with.
func (ve ValidationErrors) Fields() map[string][]string {
	out := make(map[string][]string, len(ve))
	for _, e := range ve {
		out[e.Field] = append(out[e.Field], e.Message)
	}
	return out
}

// fieldValidator checks one input field. Validators are independent of each
// other; the cross-field check always runs after all of them passed.
type fieldValidator struct {
	field string
	check func(in *RegisterInput) string
}

var registerPipeline = []fieldValidator{
	{"email", func(in *RegisterInput) string {
		if in.Email == "" {
			return "Este campo é obrigatório."
		}
		if !emailRegexp.MatchString(in.Email) {
			return "Informe um endereço de e-mail válido."
		}
		return ""
	}},
	{"password", func(in *RegisterInput) string {
		return passwordPolicyViolation(in.Password)
	}},
	{"cpf", func(in *RegisterInput) string {
		if in.CPF == "" {
			return "Este campo é obrigatório."
		}
		if !cpfRegexp.MatchString(in.CPF) {
			return "O CPF deve estar no formato 000.000.000-00."
		}
		return ""
	}},
	{"telefone", func(in *RegisterInput) string {
		if in.Telefone != "" && !telefoneRegexp.MatchString(in.Telefone) {
			return "O telefone deve estar no formato (00) 00000-0000."
		}
		return ""
	}},
}

func validateRegister(in *RegisterInput) ValidationErrors {
	var errs ValidationErrors
	for _, v := range registerPipeline {
		if msg := v.check(in); msg != "" {
			errs = append(errs, ValidationError{Field: v.field, Message: msg})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	// Cross-field: the login name falls back to the e-mail.
	if in.Username == "" && in.Email == "" {
		errs = append(errs, ValidationError{Field: "username", Message: "username ou email é obrigatório."})
	}
	return errs
}

// passwordPolicyViolation returns the first policy rule the password
// breaks, or "" when it passes.
func passwordPolicyViolation(password string) string {
	if password == "" {
		return "Este campo é obrigatório."
	}
	if len(password) < 8 {
		return "A senha deve ter pelo menos 8 caracteres."
	}
	allDigits := true
	hasLetter, hasDigit := false, false
	for _, r := range password {
		if unicode.IsDigit(r) {
			hasDigit = true
		} else {
			allDigits = false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	if allDigits {
		return "A senha não pode ser inteiramente numérica."
	}
	if !hasLetter || !hasDigit {
		return "A senha deve conter letras e números."
	}
	return ""
}

// SplitNome derives display-name parts from a single free-text name: the
// first whitespace-delimited token is the first name, the remainder joined
// by single spaces is the last name.
func SplitNome(nome string) (first, last string) {
	parts := strings.Fields(nome)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
