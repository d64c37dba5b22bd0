package crisis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetector_Scan(t *testing.T) {
	d, err := NewDetector()
	require.NoError(t, err)

	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "phrase inside sentence", input: "I want to kill myself", want: true},
		{name: "no crisis language", input: "I had a great day", want: false},
		{name: "upper case", input: "KILL MYSELF", want: true},
		{name: "mixed case single word", input: "thinking about SuIcIdE lately", want: true},
		{name: "phrase at end", input: "sometimes I just want to end it all", want: true},
		{name: "empty", input: "", want: false},
		{name: "unicode noise", input: "un été très calme", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Scan(tt.input))
		})
	}
}

func TestDetector_ExtraKeywords(t *testing.T) {
	d, err := NewDetector("  No Way Out ", "suicide", "")
	require.NoError(t, err)

	assert.True(t, d.Scan("there is no way out for me"))
	assert.Contains(t, d.Keywords(), "no way out")

	count := 0
	for _, k := range d.Keywords() {
		if k == "suicide" {
			count++
		}
	}
	assert.Equal(t, 1, count, "duplicate keywords are collapsed")
}

func TestDetector_ConcurrentScan(t *testing.T) {
	d, err := NewDetector()
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				assert.True(t, d.Scan("thinking of self harm"))
			} else {
				assert.False(t, d.Scan("just a normal afternoon"))
			}
		}(i)
	}
	wg.Wait()
}

func TestNewSupport(t *testing.T) {
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewSupport(at)

	assert.Equal(t, SupportMessage, s.Message)
	assert.Equal(t, at, s.Timestamp)
	require.Len(t, s.Resources, len(DefaultResources))

	// The payload owns its slice.
	s.Resources[0].Number = "changed"
	assert.NotEqual(t, "changed", DefaultResources[0].Number)
}

func TestMultiSink_IsolatesFailures(t *testing.T) {
	var got []string
	failing := AlertSinkFunc(func(ctx context.Context, a Alert) error {
		return errors.New("broker down")
	})
	recording := AlertSinkFunc(func(ctx context.Context, a Alert) error {
		got = append(got, a.Room)
		return nil
	})

	sink := MultiSink{failing, nil, recording, LogSink{}}
	err := sink.Publish(context.Background(), Alert{Room: "crisis", Content: "help"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	assert.Equal(t, []string{"crisis"}, got)
}
