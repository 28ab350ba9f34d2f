package engine

import "github.com/trackmix/trackmix"

// Player plays a multichannel buffer. It is owned by the audio callback and
// is not safe for concurrent use; other goroutines control it through the
// engine's command table.
type Player struct {
	buffer   trackmix.Buffer
	playhead int
	playing  bool
	loop     bool
	loopFrom int
	loopTo   int
}

func NewPlayer(buffer trackmix.Buffer) *Player {
	return &Player{buffer: buffer, loopTo: buffer.Length()}
}

func (p *Player) Length() int   { return p.buffer.Length() }
func (p *Player) Playhead() int { return p.playhead }
func (p *Player) Playing() bool { return p.playing }

// Play starts playing from start.
func (p *Player) Play(start int) {
	p.SetPlayhead(start)
	p.playing = true
}

// Resume continues from the current play head.
func (p *Player) Resume() {
	p.playing = true
}

func (p *Player) Stop() {
	p.playing = false
}

func (p *Player) SetPlayhead(pos int) {
	p.playhead = clampInt(pos, 0, p.Length())
}

func (p *Player) SetLoop(loop bool) {
	p.loop = loop
}

// SetLoopRange sets the range [from, to) that is looped, or played to its end
// when not looping. An empty range resets it to the whole buffer.
func (p *Player) SetLoopRange(from, to int) {
	length := p.Length()
	from, to = clampInt(from, 0, length), clampInt(to, 0, length)
	if to <= from {
		from, to = 0, length
	}
	p.loopFrom, p.loopTo = from, to
}

func (p *Player) LoopRange() (from, to int) {
	return p.loopFrom, p.loopTo
}

// Render fills dst, one slice per channel of equal length, with the next
// samples of the buffer. When looping, playback wraps from the end of the
// loop range back to its start; otherwise playback stops at the end of the
// loop range and Render returns true.
func (p *Player) Render(dst [][]float32) (ended bool) {
	if len(dst) == 0 {
		return false
	}
	n := len(dst[0])
	i := 0
	for p.playing && i < n {
		if p.playhead >= p.loopTo {
			if !p.loop || p.loopTo <= p.loopFrom {
				p.playing = false
				p.playhead = p.loopTo
				ended = true
				break
			}
			p.playhead = p.loopFrom
		}
		chunk := min(n-i, p.loopTo-p.playhead)
		for ch, d := range dst {
			if ch < len(p.buffer.Channels) {
				copy(d[i:i+chunk], p.buffer.Channels[ch][p.playhead:p.playhead+chunk])
			} else {
				clear(d[i : i+chunk])
			}
		}
		p.playhead += chunk
		i += chunk
	}
	for _, d := range dst {
		clear(d[i:])
	}
	return ended
}
