package webhook

import "github.com/stretchr/testify/mock"

// MatchRecord creates a custom matcher for record arguments in mocks
func MatchRecord(matcher func(Record) bool) interface{} {
	return mock.MatchedBy(matcher)
}
