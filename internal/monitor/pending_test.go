package monitor

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPendingCheck_TakeClears(t *testing.T) {
	var p PendingCheck

	_, ok := p.Take()
	assert.False(t, ok)

	p.Request(OriginTimer)
	assert.True(t, p.Pending())

	o, ok := p.Take()
	assert.True(t, ok)
	assert.Equal(t, OriginTimer, o)
	assert.False(t, p.Pending())
}

func TestPendingCheck_ConcurrentRequestsConflate(t *testing.T) {
	var p PendingCheck
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				p.Request(OriginTimer)
			} else {
				p.RaiserFor(OriginKeyboard).Raise()
			}
		}(i)
	}
	wg.Wait()

	o, ok := p.Take()
	assert.True(t, ok)
	assert.Equal(t, OriginTimer|OriginKeyboard, o)

	_, ok = p.Take()
	assert.False(t, ok)
}

func TestOrigin_Names(t *testing.T) {
	assert.Nil(t, Origin(0).Names())
	assert.Equal(t, []string{"timer", "keyboard", "http"}, (OriginTimer | OriginKeyboard | OriginHTTP).Names())
}
