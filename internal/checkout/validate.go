package checkout

import "regexp"

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9][0-9\s\-()]{5,19}$`)
)

// validateContact checks the request's contact fields. Missing fields come
// back listed in Fields; a present-but-malformed email or phone is a
// separate ValidationError with no field list.
func validateContact(req PlaceRequest) *ValidationError {
	var missing []string
	if req.CustomerName == "" {
		missing = append(missing, "customer_name")
	}
	if req.CustomerEmail == "" {
		missing = append(missing, "customer_email")
	}
	if req.CustomerPhone == "" {
		missing = append(missing, "customer_phone")
	}
	if req.ShippingAddress == "" {
		missing = append(missing, "shipping_address")
	}
	if len(missing) > 0 {
		return &ValidationError{Reason: "missing required fields", Fields: missing}
	}

	if !emailPattern.MatchString(req.CustomerEmail) {
		return &ValidationError{Reason: "invalid email address"}
	}
	if !phonePattern.MatchString(req.CustomerPhone) {
		return &ValidationError{Reason: "invalid phone number"}
	}
	return nil
}
