package llmapi

// Float32s narrows a JSON-decoded vector to the precision the stores keep.
func Float32s(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
