//
// See the file COPYRIGHT for copyright information.
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
//

package conv

import (
	"github.com/stretchr/testify/assert"
	"math"
	"strconv"
	"testing"
)

func TestFloatTimeConversions(t *testing.T) {
	t.Parallel()
	// epochSec is when I wrote this test
	const (
		epochSec    int64 = 1747851186
		nanoseconds int64 = 123456789
	)
	nanoPreciseTime := float64(epochSec) + float64(nanoseconds)/1e9
	// convert to a time.Time
	tim := FloatToTime(nanoPreciseTime)
	// that time can't actually hold the full precision. It's 21 ns off, not that
	// the value itself actually matters
	epsilon := int(nanoseconds) - tim.Nanosecond()
	assert.NotZero(t, epsilon)
	assert.Less(t, epsilon, 100)

	// but, this is good enough for microsecond precision!
	assert.Equal(t, epochSec*1e6+nanoseconds/1e3, tim.UnixMicro())

	// convert back to float
	backToFloat := TimeToFloat(tim)
	assert.Less(t, nanoPreciseTime-backToFloat, 1e-7)
}

func TestFormatInt(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "123", FormatInt(123))
}

func TestParseInts(t *testing.T) {
	t.Parallel()

	i16, err := ParseInt16("-123")
	assert.NoError(t, err)
	assert.Equal(t, int16(-123), i16)
	_, err = ParseInt16("40000")
	assert.Error(t, err)

	i32, err := ParseInt32("1234")
	assert.NoError(t, err)
	assert.Equal(t, int32(1234), i32)
	_, err = ParseInt32(strconv.FormatInt(math.MaxInt32+1, 10))
	assert.Error(t, err)

	i64, err := ParseInt64("9000000000")
	assert.NoError(t, err)
	assert.Equal(t, int64(9000000000), i64)
	_, err = ParseInt64("nine")
	assert.Error(t, err)
}
