// Package domain models addresses, their geocoded coordinates, and the
// wildfire activity observed around them.
//
// # Address Keys
//
// Addresses are cached by their normalized text:
//
//	"  1600   Amphitheatre PKWY " → "1600 amphitheatre pkwy"
//
// Normalization trims, collapses whitespace runs to one space, and
// lowercases. No abbreviation expansion or punctuation handling is applied,
// so "St" and "Street" are different keys.
//
// # Coordinates
//
// Coordinates come from a forward geocoder and are accepted only when finite,
// within lat [-90,90] / lng [-180,180], and not exactly (0,0). Providers use
// (0,0) to signal "no fix".
//
// # Wildfire Data
//
// Wildfire detections come from the NASA FIRMS area API as CSV, one row per
// satellite hotspot:
//
//	latitude,longitude,bright_ti4,scan,track,acq_date,acq_time,satellite,...
//	34.12345,-118.54321,330.1,0.39,0.36,2024-07-01,0812,N,...
//
// Rows are kept as header-keyed string maps. Column sets vary by sensor
// source (VIIRS vs MODIS), so no schema is imposed beyond requiring
// "latitude" and "longitude". The area API caps a request at 5 days; a
// nominal 7-day range is built from a 5-day and a 2-day window that overlap,
// so the same detection can appear twice.
//
// The search box around an address is
//
//	"west,south,east,north" = lng-δ, lat-δ, lng+δ, lat+δ
//
// with each value printed to 6 decimal places.
package domain
