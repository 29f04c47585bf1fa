// Copyright (c) The Gitmesh Authors
// SPDX-License-Identifier: BSD-3-Clause

package git

import (
	"encoding/json"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestParseOid(t *testing.T) {
	c := qt.New(t)

	oid, err := ParseOid("f2de534b1e9b5510a5bc8a9b922aa499b0064111")
	c.Assert(err, qt.IsNil)
	c.Assert(oid.IsZero(), qt.IsFalse)

	// SHA-256 length is accepted too.
	_, err = ParseOid("a665a45920422f9d417e4867efdc4fb8a04a1f3fff1fa07e998e86f7f7a27ae3")
	c.Assert(err, qt.IsNil)

	for _, bad := range []string{
		"",
		"f2de534",
		"F2DE534B1E9B5510A5BC8A9B922AA499B0064111",
		"zzde534b1e9b5510a5bc8a9b922aa499b0064111",
	} {
		_, err := ParseOid(bad)
		c.Assert(err, qt.IsNotNil, qt.Commentf("oid %q", bad))
	}

	c.Assert(ZeroOid.IsZero(), qt.IsTrue)
	c.Assert(Oid("").IsZero(), qt.IsTrue)
}

func TestRefUpdateEncoding(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		update RefUpdate
		want   string
	}{
		{
			Updated("refs/heads/master", "f2de534b1e9b5510a5bc8a9b922aa499b0064111", "a32b2085dc27b97eed81ae2a6e13c3c6ab7b1e9f"),
			`{"type":"updated","name":"refs/heads/master","old":"f2de534b1e9b5510a5bc8a9b922aa499b0064111","new":"a32b2085dc27b97eed81ae2a6e13c3c6ab7b1e9f"}`,
		},
		{
			Created("refs/heads/feature", "a32b2085dc27b97eed81ae2a6e13c3c6ab7b1e9f"),
			`{"type":"created","name":"refs/heads/feature","oid":"a32b2085dc27b97eed81ae2a6e13c3c6ab7b1e9f"}`,
		},
		{
			Deleted("refs/heads/old", "f2de534b1e9b5510a5bc8a9b922aa499b0064111"),
			`{"type":"deleted","name":"refs/heads/old","oid":"f2de534b1e9b5510a5bc8a9b922aa499b0064111"}`,
		},
		{
			Skipped("refs/heads/master", "f2de534b1e9b5510a5bc8a9b922aa499b0064111"),
			`{"type":"skipped","name":"refs/heads/master","oid":"f2de534b1e9b5510a5bc8a9b922aa499b0064111"}`,
		},
	}
	for _, tt := range tests {
		got, err := json.Marshal(tt.update)
		c.Assert(err, qt.IsNil)
		c.Assert(string(got), qt.Equals, tt.want)

		var back RefUpdate
		c.Assert(json.Unmarshal(got, &back), qt.IsNil)
		c.Assert(back, qt.Equals, tt.update)
	}
}
