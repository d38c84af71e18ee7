// Copyright 2024 Anime Recommendation System Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package floats

import (
	"github.com/chewxy/math32"
)

// Dot returns the dot product of two vectors.
func Dot(a, b []float32) (ret float32) {
	for i := range a {
		ret += a[i] * b[i]
	}
	return
}

// Norm returns the L2 norm of a vector.
func Norm(a []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * a[i]
	}
	return math32.Sqrt(sum)
}

// Cosine returns the cosine similarity between two vectors. Either vector
// having zero norm makes the similarity undefined and NaN is returned.
func Cosine(a, b []float32) float32 {
	normA := Norm(a)
	normB := Norm(b)
	if normA == 0 || normB == 0 {
		return math32.NaN()
	}
	return Dot(a, b) / normA / normB
}

// MulConst multiplies a vector with a constant in place.
func MulConst(a []float32, c float32) {
	for i := range a {
		a[i] *= c
	}
}

// MulConstTo stores a*c into dst.
func MulConstTo(a []float32, c float32, dst []float32) {
	for i := range a {
		dst[i] = a[i] * c
	}
}

// MulConstAdd adds a*c to dst.
func MulConstAdd(a []float32, c float32, dst []float32) {
	for i := range a {
		dst[i] += a[i] * c
	}
}

// SubTo stores a-b into dst.
func SubTo(a, b, dst []float32) {
	for i := range a {
		dst[i] = a[i] - b[i]
	}
}

// Zero fills a vector with zeros.
func Zero(a []float32) {
	for i := range a {
		a[i] = 0
	}
}
