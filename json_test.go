// Copyright 2013 Seth Bunce. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
package bson

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToJSONPlainVariants(t *testing.T) {
	doc := DocumentFromPairs(
		Pair{"s", String("hi")},
		Pair{"n", Int32(7)},
		Pair{"b", Bool(true)},
		Pair{"z", Null{}},
		Pair{"arr", Array{Int32(1), Int32(2)}},
	)
	out, err := ToJSON(doc)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "hi", decoded["s"])
	assert.Equal(t, float64(7), decoded["n"])
	assert.Equal(t, true, decoded["b"])
	assert.Nil(t, decoded["z"])
	assert.Equal(t, []interface{}{float64(1), float64(2)}, decoded["arr"])
}

func TestToJSONExtendedWrappers(t *testing.T) {
	oid, err := NewObjectId()
	require.NoError(t, err)
	doc := DocumentFromPairs(
		Pair{"id", oid},
		Pair{"when", UTCDateTime(1000)},
		Pair{"re", Regexp{Pattern: "^a", Options: "i"}},
		Pair{"bin", Binary{0x01, 0x02}},
		Pair{"ts", NewTimestamp(5, 9)},
		Pair{"lo", MinKey{}},
		Pair{"hi", MaxKey{}},
		Pair{"big", UInt64(18446744073709551615)},
	)
	out, err := ToJSON(doc)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))

	idWrap := decoded["id"].(map[string]interface{})
	assert.Equal(t, oid.Hex(), idWrap["$oid"])

	whenWrap := decoded["when"].(map[string]interface{})["$date"].(map[string]interface{})
	assert.Equal(t, "1000", whenWrap["$numberLong"])

	reWrap := decoded["re"].(map[string]interface{})["$regularExpression"].(map[string]interface{})
	assert.Equal(t, "^a", reWrap["pattern"])
	assert.Equal(t, "i", reWrap["options"])

	binWrap := decoded["bin"].(map[string]interface{})["$binary"].(map[string]interface{})
	assert.Equal(t, "00", binWrap["subType"])

	tsWrap := decoded["ts"].(map[string]interface{})["$timestamp"].(map[string]interface{})
	assert.Equal(t, float64(5), tsWrap["t"])
	assert.Equal(t, float64(9), tsWrap["i"])

	assert.Equal(t, float64(1), decoded["lo"].(map[string]interface{})["$minKey"])
	assert.Equal(t, float64(1), decoded["hi"].(map[string]interface{})["$maxKey"])

	bigWrap := decoded["big"].(map[string]interface{})
	assert.Equal(t, "18446744073709551615", bigWrap["$numberLong"])
}

func TestToJSONNonFiniteDoubleIsNull(t *testing.T) {
	doc := DocumentFromPairs(
		Pair{"nan", Float(math.NaN())},
		Pair{"inf", Float(math.Inf(1))},
	)
	out, err := ToJSON(doc)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Nil(t, decoded["nan"])
	assert.Nil(t, decoded["inf"])
}

func TestToPrettyJSONIndents(t *testing.T) {
	doc := DocumentFromPairs(Pair{"a", Int32(1)})
	out, err := ToPrettyJSON(doc)
	require.NoError(t, err)
	assert.Contains(t, out, "\n")
	assert.Contains(t, out, "  \"a\"")
}

func TestJSONStringEscaping(t *testing.T) {
	doc := DocumentFromPairs(Pair{"s", String("line\nbreak\t\"quote\"")})
	out, err := ToJSON(doc)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "line\nbreak\t\"quote\"", decoded["s"])
}
