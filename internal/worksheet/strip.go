package worksheet

// ForStudent returns a copy of the worksheet with answer keys removed, for
// serving to students. Correctness is checked server-side against the full
// definition. Mark schemes stay in: exam questions are self-assessed and the
// scheme is revealable in the player.
func ForStudent(w Worksheet) Worksheet {
	out := w
	out.Sections = make([]Section, len(w.Sections))
	for i, sec := range w.Sections {
		out.Sections[i] = stripSection(sec)
	}
	return out
}

func stripSection(sec Section) Section {
	switch b := sec.Body.(type) {
	case *DiagramLabelDragDrop:
		c := *b
		c.DropZones = make([]DropZone, len(b.DropZones))
		for i, z := range b.DropZones {
			z.DataCorrect = ""
			c.DropZones[i] = z
		}
		sec.Body = &c
	case *OrderSequence:
		c := *b
		c.CorrectOrder = nil
		sec.Body = &c
	case *MatchingTask:
		c := *b
		c.Descriptions = make([]MatchDescription, len(b.Descriptions))
		for i, d := range b.Descriptions {
			d.MatchesTo = ""
			c.Descriptions[i] = d
		}
		sec.Body = &c
	case *ScenarioQuestion:
		c := *b
		c.Scenarios = make([]Scenario, len(b.Scenarios))
		for i, sc := range b.Scenarios {
			sc.CorrectAnswerValue = ""
			c.Scenarios[i] = sc
		}
		sec.Body = &c
	case *FillTheBlanks:
		c := *b
		c.Sentences = make([]FillBlankSentence, len(b.Sentences))
		for i, s := range b.Sentences {
			s.CorrectAnswers = nil
			c.Sentences[i] = s
		}
		sec.Body = &c
	case *MultipleChoiceQuiz:
		c := *b
		c.Questions = make([]QuizQuestion, len(b.Questions))
		for i, q := range b.Questions {
			q.CorrectAnswer = ""
			c.Questions[i] = q
		}
		sec.Body = &c
	}
	return sec
}
