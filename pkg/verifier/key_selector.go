// Copyright (C) 2025 SAGE-X Project
//
// This file is part of didery-go.
//
// didery-go is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// didery-go is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with didery-go.  If not, see <https://www.gnu.org/licenses/>.

package verifier

import (
	"context"
	"crypto/ed25519"

	"github.com/sage-x-project/didery-go/pkg/record"
)

// KeySelector selects the verification key a record's signature must
// validate against.
type KeySelector interface {
	// SelectKey returns the key for the signature labelled tag
	// (signer.TagSigner or signer.TagRotation) on rec of the given kind.
	SelectKey(ctx context.Context, rec *record.Record, kind record.Kind, tag string) (ed25519.PublicKey, error)
}
