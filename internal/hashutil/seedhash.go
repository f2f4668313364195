/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package hashutil

import "fmt"

// ComputeSeedHash folds a 64-bit update seed down to the 16-bit tag stored
// in every serialized image. Two sketches can only be combined if their
// seed hashes match, which is the cheap proxy for "built with the same
// seed" without carrying the seed itself in the wire format.
func ComputeSeedHash(seed int64) (int16, error) {
	h1 := HashInt64(seed, 0)
	seedHash := h1 & 0xFFFF
	if seedHash == 0 {
		return 0, fmt.Errorf("seed %d produces a seed hash of zero, choose a different seed", seed)
	}
	return int16(seedHash), nil
}
