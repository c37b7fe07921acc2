// Package config reads and writes cpu.Limits as the INI document described
// in original_source/sources/libqasm/limits.cpp: a [memory] section with
// per-instance capacity_N/read_only_N keys plus an instances count, and one
// [stacks]/[queues]/[tapes] section each with a shared capacity/instances
// pair.
package config

import (
	"fmt"
	"io"

	"gopkg.in/ini.v1"

	"github.com/ucpu/qasmint/cpu"
)

// knownKeys enumerates every key this loader recognizes per section.
// Per §6 ("Unknown keys are rejected by the host loader"), anything else
// found in the document is a load error.
var knownKeys = map[string]map[string]bool{
	"memory":    {"instances": true},
	"stacks":    {"capacity": true, "instances": true},
	"queues":    {"capacity": true, "instances": true},
	"tapes":     {"capacity": true, "instances": true},
	"callstack": {"capacity": true},
	"interrupt": {"period": true},
}

func init() {
	for i := 1; i <= 26; i++ {
		knownKeys["memory"][fmt.Sprintf("capacity_%d", i)] = true
		knownKeys["memory"][fmt.Sprintf("read_only_%d", i)] = true
	}
}

func rejectUnknownKeys(f *ini.File) error {
	for _, section := range f.Sections() {
		name := section.Name()
		if name == ini.DefaultSection {
			if len(section.Keys()) == 0 {
				continue
			}
			return fmt.Errorf("config: unexpected keys outside any section")
		}
		known, ok := knownKeys[name]
		if !ok {
			return fmt.Errorf("config: unknown section %q", name)
		}
		for _, key := range section.Keys() {
			if !known[key.Name()] {
				return fmt.Errorf("config: unknown key %q in section %q", key.Name(), name)
			}
		}
	}
	return nil
}

// Load reads a Limits value from an INI document, starting from
// cpu.DefaultLimits() and overriding whichever keys are present.
func Load(r io.Reader) (cpu.Limits, error) {
	limits := cpu.DefaultLimits()

	f, err := ini.Load(r)
	if err != nil {
		return cpu.Limits{}, err
	}

	if err := rejectUnknownKeys(f); err != nil {
		return cpu.Limits{}, err
	}

	memory := f.Section("memory")
	for i := 0; i < 26; i++ {
		limits.MemoryCapacity[i] = uint32(memory.Key(fmt.Sprintf("capacity_%d", i+1)).MustUint(uint(limits.MemoryCapacity[i])))
		limits.MemoryReadOnly[i] = memory.Key(fmt.Sprintf("read_only_%d", i+1)).MustBool(limits.MemoryReadOnly[i])
	}
	limits.MemoriesCount = memory.Key("instances").MustInt(limits.MemoriesCount)

	stacks := f.Section("stacks")
	limits.StackCapacity = uint32(stacks.Key("capacity").MustUint(uint(limits.StackCapacity)))
	limits.StacksCount = stacks.Key("instances").MustInt(limits.StacksCount)

	queues := f.Section("queues")
	limits.QueueCapacity = uint32(queues.Key("capacity").MustUint(uint(limits.QueueCapacity)))
	limits.QueuesCount = queues.Key("instances").MustInt(limits.QueuesCount)

	tapes := f.Section("tapes")
	limits.TapeCapacity = uint32(tapes.Key("capacity").MustUint(uint(limits.TapeCapacity)))
	limits.TapesCount = tapes.Key("instances").MustInt(limits.TapesCount)

	callstack := f.Section("callstack")
	limits.CallStackCapacity = callstack.Key("capacity").MustInt(limits.CallStackCapacity)

	interrupt := f.Section("interrupt")
	limits.InterruptPeriod = uint64(interrupt.Key("period").MustUint64(limits.InterruptPeriod))

	return limits, nil
}

// Save writes limits as an INI document in the same layout Load reads.
func Save(w io.Writer, limits cpu.Limits) error {
	f := ini.Empty()

	memory, err := f.NewSection("memory")
	if err != nil {
		return err
	}
	for i := 0; i < 26; i++ {
		if _, err := memory.NewKey(fmt.Sprintf("capacity_%d", i+1), fmt.Sprint(limits.MemoryCapacity[i])); err != nil {
			return err
		}
		if _, err := memory.NewKey(fmt.Sprintf("read_only_%d", i+1), fmt.Sprint(limits.MemoryReadOnly[i])); err != nil {
			return err
		}
	}
	if _, err := memory.NewKey("instances", fmt.Sprint(limits.MemoriesCount)); err != nil {
		return err
	}

	stacks, err := f.NewSection("stacks")
	if err != nil {
		return err
	}
	if _, err := stacks.NewKey("capacity", fmt.Sprint(limits.StackCapacity)); err != nil {
		return err
	}
	if _, err := stacks.NewKey("instances", fmt.Sprint(limits.StacksCount)); err != nil {
		return err
	}

	queues, err := f.NewSection("queues")
	if err != nil {
		return err
	}
	if _, err := queues.NewKey("capacity", fmt.Sprint(limits.QueueCapacity)); err != nil {
		return err
	}
	if _, err := queues.NewKey("instances", fmt.Sprint(limits.QueuesCount)); err != nil {
		return err
	}

	tapes, err := f.NewSection("tapes")
	if err != nil {
		return err
	}
	if _, err := tapes.NewKey("capacity", fmt.Sprint(limits.TapeCapacity)); err != nil {
		return err
	}
	if _, err := tapes.NewKey("instances", fmt.Sprint(limits.TapesCount)); err != nil {
		return err
	}

	callstack, err := f.NewSection("callstack")
	if err != nil {
		return err
	}
	if _, err := callstack.NewKey("capacity", fmt.Sprint(limits.CallStackCapacity)); err != nil {
		return err
	}

	interrupt, err := f.NewSection("interrupt")
	if err != nil {
		return err
	}
	if _, err := interrupt.NewKey("period", fmt.Sprint(limits.InterruptPeriod)); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}
