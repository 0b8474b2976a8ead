// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingestion

import (
	"context"

	"github.com/poiesic/resolvit/core"
)

// batch identifies the knowledge items touched by one import.
type batch struct {
	faqs      []core.ID
	documents []core.ID
}

func (b batch) empty() bool {
	return len(b.faqs) == 0 && len(b.documents) == 0
}

// processor is an internal interface for enriching imported items.
type processor interface {
	// process enriches the items identified by b.
	process(ctx context.Context, b batch) error
}
