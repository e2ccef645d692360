// Package domain models climate observations and the rules used to fold them
// into the climate star-schema warehouse.
//
// # Data Source
//
// Input is a single CSV export in which every row carries both the yearly
// climate indicators and one extreme-weather event tally. Required columns:
//
//	Year                             integer
//	Temperature Category             label, e.g. "High"
//	CO2 Category                     label
//	Sea Level Category               label
//	Extreme Event Type               label, may be blank
//	Region                           label
//	Ecosystem                        label
//	Data Source                      label, e.g. "NOAA"
//	Global Average Temperature (°C)  decimal
//	CO2 Concentration_ppm            decimal
//	Sea Level Rise_mm                decimal
//	Extreme Events Count             integer
//	Economic Loss (billions)         decimal
//
// Blank numeric cells are read as NaN and never survive outlier filtering.
// A blank Extreme Event Type is replaced with a sentinel label (default
// "Desconocido") before dimension resolution. Any other blank label is an error.
//
// # Outlier Filtering
//
// Each chunk is filtered with the 1.5×IQR rule, one metric at a time, in
// [DefaultMetricOrder]. Quartiles use linear interpolation between closest
// ranks. Every pass sees only the rows kept by the previous pass, and only the
// rows of its own chunk, so the surviving set depends on metric order and on
// the chunk size.
//
// # Merge Rules
//
// Rows whose dimension keys match an existing fact are collapsed into it with a
// pairwise running average, see [DecideMergeCase], [AverageCount] and
// [AverageFloat]. The average is biased toward the most recent merge: it is not
// a cumulative mean.
package domain
