package validator

import (
	"net/mail"
	"strings"

	"github.com/civicworks/civicconnect/internal/domain"
)

type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

func ValidateRegister(email, firstName, lastName, password string) ValidationErrors {
	errs := make(ValidationErrors)

	validateEmail(email, errs)

	firstName = strings.TrimSpace(firstName)
	if firstName == "" {
		errs.Add("firstName", "First name is required")
	} else if len(firstName) < 3 {
		errs.Add("firstName", "First name must be at least 3 characters")
	}

	if strings.TrimSpace(lastName) == "" {
		errs.Add("lastName", "Last name is required")
	}

	if len(password) < 8 {
		errs.Add("password", "Password must be at least 8 characters")
	}

	return errs
}

func ValidateLogin(email, password string) ValidationErrors {
	errs := make(ValidationErrors)

	validateEmail(email, errs)

	if password == "" {
		errs.Add("password", "Password is required")
	}

	return errs
}

func ValidatePost(title, description, category, location, priority string) ValidationErrors {
	errs := make(ValidationErrors)

	if strings.TrimSpace(title) == "" {
		errs.Add("title", "Title is required")
	}
	if strings.TrimSpace(description) == "" {
		errs.Add("description", "Description is required")
	}
	if strings.TrimSpace(category) == "" {
		errs.Add("category", "Category is required")
	}
	if strings.TrimSpace(location) == "" {
		errs.Add("location", "Location is required")
	}
	if priority = strings.TrimSpace(priority); priority != "" && !domain.ValidPriority(priority) {
		errs.Add("priority", "Priority must be low, medium or high")
	}

	return errs
}

func ValidateComment(content string) ValidationErrors {
	errs := make(ValidationErrors)

	if strings.TrimSpace(content) == "" {
		errs.Add("content", "Comment content is required")
	}

	return errs
}

func ValidateStatus(status string) ValidationErrors {
	errs := make(ValidationErrors)

	if !domain.ValidStatus(status) {
		errs.Add("status", "Status must be pending, in_progress, resolved or closed")
	}

	return errs
}

func validateEmail(email string, errs ValidationErrors) {
	email = strings.TrimSpace(email)
	if email == "" {
		errs.Add("email", "Email is required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs.Add("email", "Invalid email address")
	}
}
