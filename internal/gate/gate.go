// Copyright (c) 2025 MedConnect
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package gate is the last check before a statement reaches the store: the
// statement's own leading verb must belong to the branch about to run it.
// The routed intent is not trusted; the text is.
package gate

import (
	"strings"
	"unicode"

	"go.uber.org/zap"

	"medconnect/agent/internal/schema"
)

// Branch is an execution branch.
type Branch string

const (
	BranchRead  Branch = "read"
	BranchWrite Branch = "write"
)

// Rejection texts handed to response synthesis.
const (
	ReasonRead     = "Unauthorized operation."
	ReasonWrite    = "Unauthorized operation. Only writes are allowed here."
	ReasonCompound = "Unauthorized operation. Only a single statement is allowed."
)

var allowed = map[Branch][]string{
	BranchRead:  {schema.VerbSelect},
	BranchWrite: {schema.VerbInsert, schema.VerbUpdate, schema.VerbDelete},
}

// Verdict is the outcome of one authorization check.
type Verdict struct {
	Authorized bool
	Verb       string
	Compound   bool
	Reason     string
}

// Authorize checks query against branch. Compound statements are reported in
// the verdict and rejected only when rejectCompound is set.
func Authorize(query string, branch Branch, rejectCompound bool) Verdict {
	v := Verdict{Verb: LeadingVerb(query), Compound: IsCompound(query)}

	permitted := false
	for _, verb := range allowed[branch] {
		if v.Verb == verb {
			permitted = true
			break
		}
	}
	switch {
	case !permitted && branch == BranchWrite:
		v.Reason = ReasonWrite
	case !permitted:
		v.Reason = ReasonRead
	case v.Compound && rejectCompound:
		v.Reason = ReasonCompound
	default:
		v.Authorized = true
	}
	return v
}

// Gate applies Authorize with configured options and logs rejections.
type Gate struct {
	rejectCompound bool
	log            *zap.Logger
}

// New creates a Gate.
func New(rejectCompound bool, logger *zap.Logger) *Gate {
	return &Gate{rejectCompound: rejectCompound, log: logger.Named("gate")}
}

// Authorize checks query against branch.
func (g *Gate) Authorize(query string, branch Branch) Verdict {
	v := Authorize(query, branch, g.rejectCompound)
	if v.Compound {
		g.log.Warn("compound statement detected",
			zap.String("branch", string(branch)),
			zap.Bool("rejected", !v.Authorized),
			zap.String("sql", query))
	}
	if !v.Authorized {
		g.log.Warn("security block",
			zap.String("branch", string(branch)),
			zap.String("verb", v.Verb),
			zap.String("sql", query))
	}
	return v
}

// LeadingVerb returns the first keyword of query, upper-cased, skipping
// whitespace and SQL comments. It returns "" when there is none.
func LeadingVerb(query string) string {
	rest := skipTrivia(query)
	end := strings.IndexFunc(rest, func(r rune) bool { return !unicode.IsLetter(r) })
	if end == -1 {
		end = len(rest)
	}
	return strings.ToUpper(rest[:end])
}

// IsCompound reports whether query holds more than one statement: a ';'
// outside literals and comments followed by anything but trivia.
func IsCompound(query string) bool {
	for i := 0; i < len(query); i++ {
		switch c := query[i]; {
		case c == '\'' || c == '"':
			i = skipQuoted(query, i, c)
		case c == '-' && strings.HasPrefix(query[i:], "--"):
			i = skipLine(query, i)
		case c == '/' && strings.HasPrefix(query[i:], "/*"):
			i = skipBlock(query, i)
		case c == ';':
			return hasMoreSQL(query[i+1:])
		}
	}
	return false
}

// hasMoreSQL reports whether s holds anything besides trivia and empty statements.
func hasMoreSQL(s string) bool {
	for {
		s = skipTrivia(s)
		if !strings.HasPrefix(s, ";") {
			return s != ""
		}
		s = s[1:]
	}
}

// skipTrivia drops leading whitespace and comments.
func skipTrivia(s string) string {
	for {
		s = strings.TrimLeftFunc(s, unicode.IsSpace)
		switch {
		case strings.HasPrefix(s, "--"):
			if nl := strings.IndexByte(s, '\n'); nl >= 0 {
				s = s[nl+1:]
			} else {
				return ""
			}
		case strings.HasPrefix(s, "/*"):
			if end := strings.Index(s[2:], "*/"); end >= 0 {
				s = s[end+4:]
			} else {
				return ""
			}
		default:
			return s
		}
	}
}

// skipQuoted returns the index of the closing quote of the literal opened at
// i; a doubled quote is an escaped quote.
func skipQuoted(s string, i int, q byte) int {
	for j := i + 1; j < len(s); j++ {
		if s[j] != q {
			continue
		}
		if j+1 < len(s) && s[j+1] == q {
			j++
			continue
		}
		return j
	}
	return len(s)
}

func skipLine(s string, i int) int {
	if nl := strings.IndexByte(s[i:], '\n'); nl >= 0 {
		return i + nl
	}
	return len(s)
}

func skipBlock(s string, i int) int {
	if end := strings.Index(s[i+2:], "*/"); end >= 0 {
		return i + 2 + end + 1
	}
	return len(s)
}
