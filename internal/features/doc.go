// Package features defines the acoustic feature vector produced for each audio
// file by the extraction collaborator.
//
// Every scalar measurement carries an explicit availability flag. A value the
// extractor could not compute is unavailable (Valid == false) and is never
// replaced by zero, so downstream scoring can exclude it instead of treating it
// as a real measurement. Chroma and MFCC sequences are nil when unavailable.
//
// Tempo has three states:
//   - unavailable: the extractor did not run tempo estimation
//   - absent: estimation ran and found no pulse (Valid, Value == 0)
//   - present: a positive BPM value
package features
