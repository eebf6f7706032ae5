package templates

// Every template carries at least four words besides its slots.
var defaults = Overrides{
	"attribute_event": {
		"began": {
			"When did {event} first begin?",
			"What was the start date of {event}?",
			"When did {event} get underway?",
		},
		"ended": {
			"When did {event} come to an end?",
			"What was the end date of {event}?",
		},
		"location": {
			"Where did {event} take place?",
			"In which place did {event} happen?",
		},
	},
	"attribute_entity": {
		"born": {
			"What is the birth date of {entity}?",
			"On what date was {entity} born?",
		},
		"died": {
			"What is the date of death of {entity}?",
			"When did {entity} pass away?",
		},
		"founded": {
			"What is the founding date of {entity}?",
			"When was {entity} originally founded?",
		},
		"country": {
			"Which country is {entity} associated with?",
			"What country is {entity} from?",
		},
		"field": {
			"In which field did {entity} work?",
			"What field is {entity} known for?",
		},
	},
	"attribute_time": {
		"began_in_year": {
			"Which {domain} event began in {year}?",
			"What {domain} event started in {year}?",
		},
	},
	"comparison_event": {
		"earlier": {
			"Which started earlier, {event1} or {event2}?",
			"Which began first: {event1} or {event2}?",
		},
		"later": {
			"Which started later, {event1} or {event2}?",
			"Which began more recently: {event1} or {event2}?",
		},
	},
	"comparison_entity": {
		"born_earlier": {
			"Who was born earlier, {entity1} or {entity2}?",
			"Which person is older: {entity1} or {entity2}?",
		},
		"founded_earlier": {
			"Which was founded earlier, {entity1} or {entity2}?",
			"Which one is older: {entity1} or {entity2}?",
		},
	},
	"comparison_time": {
		"years_between": {
			"How many years passed between the start of {event1} and the start of {event2}?",
			"How many years after {event1} began did {event2} begin?",
		},
	},
	"counting_event": {
		"in_range": {
			"How many {domain} events began in {period}?",
			"How many {domain} events started during {period}?",
		},
	},
	"counting_entity": {
		"born_in_range": {
			"How many notable people in {domain} were born in {period}?",
			"How many {domain} figures were born during {period}?",
		},
		"founded_in_range": {
			"How many {domain} organizations were founded in {period}?",
			"How many {domain} institutions were established during {period}?",
		},
	},
	"causal_reasoning": {
		"effect_of": {
			"What did {subject} directly lead to?",
			"What was a direct consequence of {subject}?",
		},
		"cause_of": {
			"What was a direct cause of {subject}?",
			"Which earlier development directly led to {subject}?",
		},
	},
	"duration_estimation": {
		"years": {
			"How many years did {event} last?",
			"For how many years did {event} go on?",
		},
		"months": {
			"How many months did {event} last?",
			"For how many months did {event} continue?",
		},
		"days": {
			"How many days did {event} last?",
			"For how many days did {event} continue?",
		},
	},
	"sequence_ordering": {
		"chronological": {
			"Put these events in chronological order: {events}.",
			"Arrange the following events from earliest to latest: {events}.",
		},
	},
	"cross_domain": {
		"influenced": {
			"Which {domain} development was influenced by {subject}?",
			"What in the field of {domain} did {subject} influence?",
		},
	},
	"temporal_clustering": {
		"same_decade": {
			"Which other events began in the same decade as {event}?",
			"What else started in the same decade as {event}?",
		},
		"same_century": {
			"Which other events began in the same century as {event}?",
			"What else started in the same century as {event}?",
		},
	},
	"multi_granular": {
		"decade_began": {
			"In which decade did {event} begin?",
			"During what decade did {event} start?",
		},
		"century_began": {
			"In which century did {event} begin?",
			"During what century did {event} start?",
		},
		"century_ended": {
			"In which century did {event} end?",
			"During what century did {event} come to an end?",
		},
	},
	"counterfactual": {
		"direct": {
			"If {cause} had never happened, which development of {year} might not have occurred?",
			"Without {cause}, what that began in {year} might never have happened?",
		},
		"chained": {
			"If {cause} had never happened, through which event would {effect} also have been prevented?",
			"Without {cause}, which intermediate event linking it to {effect} would not have occurred?",
		},
	},
	"temporal_overlap": {
		"overlap": {
			"Did {event1} and {event2} overlap in time?",
			"Were {event1} and {event2} happening at the same time?",
		},
	},
}
