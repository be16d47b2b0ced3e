package replay

// Observer is told about every command the engine runs. Calls happen on the
// engine's goroutine, in execution order.
type Observer interface {
	CommandStart(index, total int, phase Phase, command string)
	CommandEnd(index int, phase Phase, output string, err error)
	EntryEnd(res *EntryResult)
}

// Observers fans out to several observers in order.
type Observers []Observer

func (o Observers) CommandStart(index, total int, phase Phase, command string) {
	for _, obs := range o {
		obs.CommandStart(index, total, phase, command)
	}
}

func (o Observers) CommandEnd(index int, phase Phase, output string, err error) {
	for _, obs := range o {
		obs.CommandEnd(index, phase, output, err)
	}
}

func (o Observers) EntryEnd(res *EntryResult) {
	for _, obs := range o {
		obs.EntryEnd(res)
	}
}

type nopObserver struct{}

func (nopObserver) CommandStart(int, int, Phase, string) {}
func (nopObserver) CommandEnd(int, Phase, string, error) {}
func (nopObserver) EntryEnd(*EntryResult)                {}
