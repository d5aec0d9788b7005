package crdt

import (
	"testing"

	"github.com/marmos91/rhc-coord/pkg/hlc"
	"github.com/stretchr/testify/assert"
)

func TestLWWRegisterBasic(t *testing.T) {
	reg := NewLWWRegister[string]()
	ts1 := hlc.Timestamp{Physical: 100}
	ts2 := hlc.Timestamp{Physical: 200}

	reg.Set("value1", "a", ts1)
	v, ok := reg.Get()
	assert.True(t, ok)
	assert.Equal(t, "value1", v)

	reg.Set("value2", "a", ts2)
	v, _ = reg.Get()
	assert.Equal(t, "value2", v)

	ts0 := hlc.Timestamp{Physical: 50}
	reg.Set("value0", "a", ts0)
	v, _ = reg.Get()
	assert.Equal(t, "value2", v, "older timestamp must not overwrite")
}

func TestLWWRegisterMergeIsCommutative(t *testing.T) {
	ts1 := hlc.Timestamp{Physical: 100}
	ts2 := hlc.Timestamp{Physical: 200}

	reg1 := NewLWWRegister[string]()
	reg2 := NewLWWRegister[string]()
	reg1.Set("value1", "a", ts1)
	reg2.Set("value2", "b", ts2)

	reg1.Merge(reg2)
	v, _ := reg1.Get()
	assert.Equal(t, "value2", v)

	reg3 := NewLWWRegister[string]()
	reg4 := NewLWWRegister[string]()
	reg3.Set("value1", "a", ts1)
	reg4.Set("value2", "b", ts2)
	reg4.Merge(reg3)
	v, _ = reg4.Get()
	assert.Equal(t, "value2", v)
}

func TestLWWRegisterTieBreaksOnActor(t *testing.T) {
	ts := hlc.Timestamp{Physical: 100}

	regA := NewLWWRegister[string]()
	regB := NewLWWRegister[string]()
	regA.Set("from-a", "a", ts)
	regB.Set("from-z", "z", ts)

	merged1 := regA.Clone()
	merged1.Merge(regB)
	merged2 := regB.Clone()
	merged2.Merge(regA)

	v1, _ := merged1.Get()
	v2, _ := merged2.Get()
	assert.Equal(t, v1, v2, "tie on identical timestamp must resolve identically regardless of merge direction")
	assert.Equal(t, "from-z", v1, "higher ActorId wins ties")
}

func TestLWWRegisterHappensBefore(t *testing.T) {
	reg1 := NewLWWRegister[string]()
	reg2 := NewLWWRegister[string]()
	reg2.Set("v", "a", hlc.Timestamp{Physical: 10})

	assert.True(t, reg1.HappensBefore(reg2))
	assert.False(t, reg2.HappensBefore(reg1))
}
