// internal/app/system/search/search.go
package search

import "strings"

// EmailPivot reports whether a people search should switch from the folded
// name index to the email index: the query looks like part of an email
// address.
//
//	if search.EmailPivot(q) {
//	    filter on "email", sort on "email"
//	} else {
//	    filter on "fullNameCI", sort on "fullNameCI"
//	}
func EmailPivot(q string) bool {
	return strings.Contains(strings.TrimSpace(q), "@")
}

// SortField returns the field a people list should be ordered by for q.
func SortField(q, nameField, emailField string) string {
	if EmailPivot(q) {
		return emailField
	}
	return nameField
}
