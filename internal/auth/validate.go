package auth

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dmitrijs2005/waterwatch/internal/common"
)

const (
	mobileLength      = 10
	minPasswordLength = 8
	specialCharacters = "!@#$%^&*()_+-=[]{}|;:,.<>?"
)

const (
	msgAllFieldsRequired  = "All fields are required"
	msgInvalidMobile      = "Please enter a valid 10-digit mobile number"
	msgPasswordTooShort   = "Password must be at least 8 characters long"
	msgPasswordNoLetter   = "Password must contain at least one letter"
	msgPasswordNoDigit    = "Password must contain at least one number"
	msgPasswordNoSpecial  = "Password must contain at least one special character"
	msgInvalidEmail       = "Please enter a valid email address"
	msgUserExists         = "User with this mobile number already exists"
	msgLoginFieldsMissing = "Please enter both mobile number and password"
	msgUserNotFound       = "User not found. Please check your mobile number"
	msgIncorrectPassword  = "Incorrect password"
	msgNotLoggedIn        = "No user logged in"
	msgUserDataNotFound   = "User data not found"
	msgWrongOldPassword   = "Current password is incorrect"
	msgNameEmpty          = "Name cannot be empty"
	msgMobileEmpty        = "Mobile number cannot be empty"
	msgMobileTaken        = "Mobile number already exists"

	msgRegistered      = "Registration successful!"
	msgLoggedIn        = "Login successful!"
	msgPasswordChanged = "Password changed successfully!"
	msgProfileUpdated  = "Profile updated successfully!"
)

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// ValidMobile reports whether s is exactly ten ASCII digits.
func ValidMobile(s string) bool {
	if len(s) != mobileLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ValidEmail reports whether s is a syntactically valid email address.
func ValidEmail(s string) bool {
	return common.ValidEmail(s)
}

// CheckPasswordPolicy returns "" when password satisfies the policy,
// otherwise the message for the first rule it breaks. Rules, in order:
// length, a letter, a digit, a special character.
func CheckPasswordPolicy(password string) string {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return msgPasswordTooShort
	}

	var letter, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(specialCharacters, r):
			special = true
		}
	}

	switch {
	case !letter:
		return msgPasswordNoLetter
	case !digit:
		return msgPasswordNoDigit
	case !special:
		return msgPasswordNoSpecial
	}
	return ""
}
