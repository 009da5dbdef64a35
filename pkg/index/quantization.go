package index

// Quantize maps an f32 embedding to i8 per the GLOSSARY formula:
// (v * scale).clamp(-128, 127) as i8.
func Quantize(vec []float32, scale float64) []int8 {
	out := make([]int8, len(vec))
	for i, v := range vec {
		scaled := float64(v) * scale
		switch {
		case scaled > 127:
			out[i] = 127
		case scaled < -128:
			out[i] = -128
		default:
			out[i] = int8(scaled)
		}
	}
	return out
}

// Dequantize reconstructs an approximate f32 vector from a quantized one,
// used where the query engine needs a cached f32 representation (e.g. for
// HNSW's distance function).
func Dequantize(vec []int8, scale float64) []float32 {
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / scale)
	}
	return out
}
