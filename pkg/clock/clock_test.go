package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedAndUnix(t *testing.T) {
	at := time.Unix(1_700_000_000, 0)
	assert.Equal(t, int64(1_700_000_000), Unix(Fixed(at)))
	assert.Equal(t, int64(42), Unix(Func(func() time.Time { return time.Unix(42, 0) })))
	assert.WithinDuration(t, time.Now(), System{}.Now(), time.Second)
}
