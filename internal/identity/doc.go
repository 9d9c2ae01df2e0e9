// Package identity derives the stable identifiers a lecture is keyed by:
// course code and date parsed from the title, the content UID derived from
// the source URL, and the canonical lecture ID composed from all three. All
// derivations are deterministic pure functions so repeated submissions of
// the same source land on the same lecture record.
package identity
