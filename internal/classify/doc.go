// Package classify assigns a semantic category to a feature vector.
//
// Five factors (duration, tempo, beats, harmonic content, spectral character)
// each award their fixed weight to the song side, the sound-effect side, or
// neither. Factors are evaluated independently and summed, so evaluation order
// never affects the outcome. The winning side must lead by more than the
// decisiveness margin; otherwise the file is ambiguous.
//
// The per-factor Breakdown is returned with every Result and persisted with the
// catalog record. Breakdown.Decide reproduces the category and confidence from
// the stored awards alone.
package classify
