package nes

import "github.com/1135975331/furnace/hw/apu"

func (d *Dispatcher) Acquire(buf []int16, n int) {
	d.Drain(d.apu.Write)

	mixer := d.apu.Mixer()
	for ch := range NumChannels {
		vol := 1.0
		if d.Muted(ch) {
			vol = 0
		}
		mixer.SetVolume(apu.Channel(ch), vol)
	}

	for done := 0; done < n; {
		chunk := min(n-done, d.chunk)
		if need := chunk - mixer.SamplesAvailable(); need > 0 {
			d.apu.Run(uint32(mixer.ClocksNeeded(need)))
			d.apu.EndFrame()
		}
		got := mixer.ReadSamples(d.mono[:chunk])
		for i, s := range d.mono[:got] {
			buf[2*(done+i)] = s
			buf[2*(done+i)+1] = s
		}
		for ch := range NumChannels {
			mixer.ChannelLevels(apu.Channel(ch), d.levels[:got])
			for _, l := range d.levels[:got] {
				d.Osc(ch, l)
			}
		}
		if got == 0 {
			clear(buf[2*done : 2*n])
			break
		}
		done += got
	}

	if addr, remaining := d.apu.DMCPosition(); remaining > 0 {
		start := dpcmBase + int(d.Reg(regDMCStart))*dpcmAlign
		d.dmcPlayed.Store(int32((int(addr) - start) & 0xffff))
	} else {
		d.dmcPlayed.Store(0)
	}
}
