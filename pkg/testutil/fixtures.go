package testutil

import (
	"github.com/google/uuid"
)

// Fixed identifiers for deterministic tests.
var (
	TestCandidateID      = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	TestOtherCandidateID = uuid.MustParse("00000000-0000-0000-0000-000000000002")
)
