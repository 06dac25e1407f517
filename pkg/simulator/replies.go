package simulator

// replyPool is the fixed set of texts the simulated peer answers with.
var replyPool = []string{
	"haha, true",
	"wait, really?",
	"love that 😍",
	"tell me more",
	"I was just thinking the same thing",
	"ok ok, give me a minute",
	"sounds good to me",
	"can't wait 🔥",
}

func (s *Simulator) pickReply() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return replyPool[s.rng.Intn(len(replyPool))]
}
