// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package numcodecs

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()

	r, err := NewRegistry(addType{}, negType{})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return r
}

func TestRegistry_Register(t *testing.T) {
	t.Parallel()

	r := testRegistry(t)

	err := r.Register(addType{})
	if diff := cmp.Diff(ErrDuplicateCodec, err, cmpopts.EquateErrors()); diff != "" {
		t.Errorf("Register (-want, +got):\n%s", diff)
	}

	if err := r.RegisterAs("plus", addType{}); err != nil {
		t.Fatalf("RegisterAs: %v", err)
	}

	if diff := cmp.Diff([]string{"add", "neg", "plus"}, r.IDs()); diff != "" {
		t.Errorf("IDs (-want, +got):\n%s", diff)
	}

	var ids []string
	for _, ct := range r.Types() {
		ids = append(ids, ct.ID())
	}
	if diff := cmp.Diff([]string{"add", "neg"}, ids); diff != "" {
		t.Errorf("Types (-want, +got):\n%s", diff)
	}
}

func TestRegistry_Codec(t *testing.T) {
	t.Parallel()

	r := testRegistry(t)
	if err := r.RegisterAs("plus", addType{}); err != nil {
		t.Fatalf("RegisterAs: %v", err)
	}

	testCases := []struct {
		name        string
		config      Config
		expectedID  string
		expectedErr error
	}{
		{
			name:       "registered",
			config:     Config{"id": "add", "value": 1},
			expectedID: "add",
		},
		{
			name:       "alias",
			config:     Config{"id": "plus", "value": 1},
			expectedID: "add",
		},
		{
			name:        "unknown",
			config:      Config{"id": "mul"},
			expectedErr: ErrUnknownCodec,
		},
		{
			name:        "missing id",
			config:      Config{"value": 1},
			expectedErr: ErrInvalidConfig,
		},
		{
			name:        "invalid config",
			config:      Config{"id": "add"},
			expectedErr: ErrInvalidConfig,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c, err := r.Codec(tc.config)
			if diff := cmp.Diff(tc.expectedErr, err, cmpopts.EquateErrors()); diff != "" {
				t.Fatalf("Codec (-want, +got):\n%s", diff)
			}
			if err != nil {
				return
			}
			if diff := cmp.Diff(tc.expectedID, c.Type().ID()); diff != "" {
				t.Errorf("Type().ID() (-want, +got):\n%s", diff)
			}
			id, err := c.Config().ID()
			if err != nil {
				t.Fatalf("Config().ID(): %v", err)
			}
			if diff := cmp.Diff(tc.expectedID, id); diff != "" {
				t.Errorf("Config().ID() (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestRegistry_CodecFromJSON(t *testing.T) {
	t.Parallel()

	r := testRegistry(t)

	testCases := []struct {
		name        string
		json        string
		expectedErr error
	}{
		{
			name: "ok",
			json: `{"id": "add", "value": 0.5, "_version": "1.1.0"}`,
		},
		{
			name:        "malformed",
			json:        `{"id": "add",`,
			expectedErr: ErrInvalidConfig,
		},
		{
			name:        "numeric id",
			json:        `{"id": 5}`,
			expectedErr: ErrInvalidConfig,
		},
		{
			name:        "unknown",
			json:        `{"id": "nope"}`,
			expectedErr: ErrUnknownCodec,
		},
		{
			name:        "not an object",
			json:        `[1, 2]`,
			expectedErr: ErrInvalidConfig,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := r.CodecFromJSON([]byte(tc.json))
			if diff := cmp.Diff(tc.expectedErr, err, cmpopts.EquateErrors()); diff != "" {
				t.Errorf("CodecFromJSON (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestRegistry_concurrent(t *testing.T) {
	t.Parallel()

	r := &Registry{}
	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = r.Register(negType{})
			r.Lookup("neg")
		}()
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
		}
	}
	if diff := cmp.Diff(1, ok); diff != "" {
		t.Errorf("successful Register calls (-want, +got):\n%s", diff)
	}
}
