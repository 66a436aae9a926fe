// Package tagfilter reduces key-prefixed labels such as "env:prod" according
// to a filter expression.
//
// An expression is exactly "*" (keep every tag), exactly "" (keep none) or
// a comma-separated list of trimmed prefixes. Inside a list an empty element
// matches every tag and "*" is an ordinary prefix. A tag survives a prefix list when any
// prefix is a literal, case-sensitive string prefix of it. No delimiter is
// implied: the prefix "env" matches both "env:prod" and "environment:x".
//
// Filtering preserves the input order of tags.
package tagfilter
