// Package filter selects submissions with expr-lang expressions such as
//
//	Rating == "General" and Pages > 1 and not has(Title, "sketch")
//
// Available fields are ID, Title, Username, Rating, Type, Pages, Scraps,
// Public, FileName and MimeType. The helpers has, prefixed and suffixed
// compare strings ignoring case; expr's own contains, startsWith and
// endsWith operators and lower/upper builtins work as usual.
package filter
