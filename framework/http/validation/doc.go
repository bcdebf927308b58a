// Package validation checks request input against pipe-separated rules.
//
// Request bodies opt in by implementing Validatable; gohttp.Body[T] runs the
// rules after decoding and fails the request with *Errors (rendered as 422).
//
//	type createUser struct {
//	    Name  string `json:"name"`
//	    Email string `json:"email"`
//	}
//
//	func (createUser) Rules() validation.Rules {
//	    return validation.Rules{
//	        "name":  "required|min:2|max:100",
//	        "email": "required|email",
//	    }
//	}
//
// Rules can also be applied to a plain map:
//
//	v := validation.Make(map[string]string{"age": "17"}, validation.Rules{"age": "numeric|gte:18"})
//	if v.Fails() {
//	    _ = v.Errors() // {"errors": {"age": ["The age must be greater than or equal to 18."]}}
//	}
//
// # Rules
//
// Length: min:n, max:n, size:n, between:lo,hi (UTF-8 characters).
// Format: email, url, alpha, alpha_num, alpha_dash, regex:pattern.
// Numbers: numeric, integer, gt:n, gte:n, lt:n, lte:n.
// Fields: confirmed, same:other, different:other.
// Sets: boolean, in:a,b,c, not_in:a,b,c.
// Presence: required; nullable and sometimes skip the remaining rules of an
// empty field.
//
// Each field stops at its first failing rule. Unknown rule names are ignored.
package validation
