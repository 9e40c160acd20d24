// Package domain links civic housing records to a property registry and
// scores landlord risk.
//
// # Data Sources
//
// Records come from open-data CSV exports: a cleaned student-housing roster,
// the city's street address master (SAM), the property assessment roll, code
// enforcement violations, and 311 service requests. District boundaries come
// from a GeoJSON FeatureCollection of city council districts. Column names
// vary by export, so every dataset is read through a fixed candidate list per
// semantic field (see [SelectColumns]).
//
// # Address Normalization
//
// Addresses and owner names are compared only after [Normalize]:
//
//	"123 Example Street Apt #2"  →  "123 example st 2"
//
// Street types collapse to a single token (street/st → st, avenue/ave → ave,
// road/rd, boulevard/blvd, place/pl, court/ct) and unit designators
// (apartment, apt, unit, floor, fl) are dropped. The normalized form is a
// matching key only and is never displayed.
//
// # Property Keys
//
// A property key is the first 12 hex characters of SHA-1 over
// "normalized address|normalized district". Keys are deterministic, so the
// registry can be rebuilt from the same sources and reproduce the same keys.
// No collision handling is attempted; 48 bits is ample below ~10^6 properties.
// See [MakeKey].
//
// # Matching
//
// Each violation and service request resolves to a property key in four
// steps, recorded as match provenance:
//
//	exact            normalized address is in the registry index
//	exact_composite  normalized "address district" is in the index
//	fuzzy            best token-set Jaccard similarity ≥ threshold (default 0.6)
//	generated        fallback key from MakeKey(address, district)
//
// Fuzzy ties keep the first candidate in index order. Resolution never fails.
//
// # Risk Scoring
//
// Each event contributes severity × decay:
//
//	severity  first keyword of the ordered table found in the text, else 1.5
//	decay     exp(−λ · age_years), age = days/365.25 from event date to today
//
// Future-dated, same-day and undated events have age 0 and decay 1.0.
// Property risk is violation_score + 0.4 × service_score. Landlord risk is the
// sum over owned properties; a landlord at or above the threshold (default
// 6.0) is a bad landlord and every property they own carries the flag. All
// scores are rounded to 4 decimal places.
//
// # Spatial Attribution
//
// When district polygons are supplied, a property with parseable coordinates
// takes the district of the first feature (in collection order) whose
// polygon contains it. Holes exclude. Properties outside every polygon keep
// their registry district.
package domain
