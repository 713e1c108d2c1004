// Package gitignore matches paths against gitignore-style patterns, per
// https://git-scm.com/docs/gitignore.
//
// Supported syntax:
//   - Wildcards (*, ?, character classes)
//   - Double-star patterns (**/logs, doc/**)
//   - Rooted patterns (/build)
//   - Directory-only patterns (build/)
//   - Negation patterns (!important.log)
//   - Nested gitignore files scoped to their directory
//
// Build a Matcher fully before sharing it; Match is safe for concurrent
// use once no more patterns are added.
//
//	m := gitignore.New()
//	m.AddPattern("*.log")
//	m.AddPattern("!important.log")
//	if m.Match("error.log", false) {
//	    // ignored
//	}
//
// Rules from a nested .gitignore apply only under its directory:
//
//	m.AddFromFile("/repo/.gitignore", "")
//	m.AddFromFile("/repo/src/.gitignore", "src")
package gitignore
