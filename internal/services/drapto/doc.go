// Package drapto runs the optional AV1 pass over a captioned video using the
// Drapto Go library.
//
// Library implements Client by calling Drapto in-process, and a reporter
// adapter condenses Drapto's Reporter callbacks into ProgressUpdate values.
// Tests substitute fake Clients so workflows run without the encoder.
package drapto
