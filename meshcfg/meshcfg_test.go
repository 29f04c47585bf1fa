// Copyright (c) The Gitmesh Authors
// SPDX-License-Identifier: BSD-3-Clause

package meshcfg

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestParseAlias(t *testing.T) {
	c := qt.New(t)

	alias, err := ParseAlias("alice")
	c.Assert(err, qt.IsNil)
	c.Assert(alias, qt.Equals, Alias("alice"))

	for _, bad := range []string{
		"",
		"has space",
		"tab\there",
		"ünïcode",
		"this-alias-is-way-too-long-to-be-valid",
	} {
		_, err := ParseAlias(bad)
		c.Assert(err, qt.IsNotNil, qt.Commentf("alias %q", bad))
	}
}

func TestTimestamp(t *testing.T) {
	c := qt.New(t)

	at := time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)
	ts := At(at)
	c.Assert(ts, qt.Equals, Timestamp(1700000000000))
	c.Assert(ts.Time(), qt.Equals, at)

	// Sub-millisecond precision is truncated.
	c.Assert(At(at.Add(300*time.Microsecond)), qt.Equals, ts)
}

func TestFeatures(t *testing.T) {
	c := qt.New(t)

	c.Assert(Features(0).String(), qt.Equals, "none")
	c.Assert(FeatureSeed.String(), qt.Equals, "seed")
	c.Assert((FeatureSeed | FeatureRelay).String(), qt.Equals, "seed|relay")
	c.Assert((FeatureSeed | 1<<8).String(), qt.Equals, "seed|0x100")

	c.Assert(FeatureSeed.Has(FeatureSeed), qt.IsTrue)
	c.Assert(FeatureSeed.Has(FeatureRelay), qt.IsFalse)
	c.Assert((FeatureSeed | FeatureRelay).Has(FeatureSeed), qt.IsTrue)
}
