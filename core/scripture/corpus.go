package scripture

import (
	"sort"
	"strings"
)

// corpusCopyright annotates corpus-served passages. The embedded texts are
// King James Version, which is in the public domain.
const corpusCopyright = "King James Version (public domain)"

// Corpus is the embedded last-resort reference corpus: a fixed
// reference-to-text mapping plus a topic keyword index. It serves as the
// fast path that avoids network calls and as the final fallback when the
// remote provider is unavailable.
type Corpus struct {
	texts  map[string]string
	refs   []string // stable iteration/selection order
	topics map[string][]string
}

// NewCorpus returns the embedded corpus.
func NewCorpus() *Corpus {
	refs := make([]string, 0, len(corpusTexts))
	for ref := range corpusTexts {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return &Corpus{texts: corpusTexts, refs: refs, topics: topicIndex}
}

// Lookup returns the corpus passage for a reference by normalized exact
// match.
func (c *Corpus) Lookup(ref, translation string) (Passage, bool) {
	text, ok := c.texts[Normalize(ref)]
	if !ok {
		return Passage{}, false
	}
	return Passage{
		Reference:   Normalize(ref),
		Translation: translation,
		Text:        text,
		Copyright:   corpusCopyright,
	}, true
}

// Size returns the number of corpus entries.
func (c *Corpus) Size() int {
	return len(c.refs)
}

// RefAt returns the i-th reference in stable order, wrapping modulo the
// corpus size. Used by the daily-verse selector's date-keyed fallback.
func (c *Corpus) RefAt(i int) string {
	if len(c.refs) == 0 {
		return ""
	}
	i %= len(c.refs)
	if i < 0 {
		i += len(c.refs)
	}
	return c.refs[i]
}

// Scan performs a case-insensitive substring match of the query against
// both reference strings and passage text, capped at max results.
func (c *Corpus) Scan(query, translation string, max int) []Passage {
	q := strings.ToLower(Normalize(query))
	if q == "" || max <= 0 {
		return nil
	}
	var hits []Passage
	for _, ref := range c.refs {
		text := c.texts[ref]
		if strings.Contains(strings.ToLower(ref), q) || strings.Contains(strings.ToLower(text), q) {
			hits = append(hits, Passage{
				Reference:   ref,
				Translation: translation,
				Text:        text,
				Copyright:   corpusCopyright,
			})
			if len(hits) >= max {
				break
			}
		}
	}
	return hits
}

// TopicReferences returns the reference list for the first topic whose key
// is a substring of the normalized query, or nil when no topic matches.
func (c *Corpus) TopicReferences(query string) []string {
	q := strings.ToLower(Normalize(query))
	if q == "" {
		return nil
	}
	// Deterministic order: check topic keys sorted, longest first so a more
	// specific key wins over a shorter one contained in it.
	keys := make([]string, 0, len(c.topics))
	for k := range c.topics {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		if strings.Contains(q, k) {
			refs := make([]string, len(c.topics[k]))
			copy(refs, c.topics[k])
			return refs
		}
	}
	return nil
}

// TopicPassages returns the curated passages for a matched topic: every
// topic reference that has corpus text, in topic order. An empty result
// means the query matched no topic or no topic reference is in the corpus.
func (c *Corpus) TopicPassages(query, translation string) []Passage {
	var out []Passage
	for _, ref := range c.TopicReferences(query) {
		if p, ok := c.Lookup(ref, translation); ok {
			out = append(out, p)
		}
	}
	return out
}

// GenericReferences is the last-resort recommendation set used when neither
// the generative service nor the topic index produces candidates.
func GenericReferences() []string {
	return []string{
		"John 3:16",
		"Psalms 23:1",
		"Romans 8:28",
		"Philippians 4:13",
		"Proverbs 3:5-6",
	}
}

// corpusTexts maps a normalized reference to its KJV text.
var corpusTexts = map[string]string{
	"Genesis 1:1":          "In the beginning God created the heaven and the earth.",
	"Exodus 14:14":         "The LORD shall fight for you, and ye shall hold your peace.",
	"Deuteronomy 31:6":     "Be strong and of a good courage, fear not, nor be afraid of them: for the LORD thy God, he it is that doth go with thee; he will not fail thee, nor forsake thee.",
	"Joshua 1:9":           "Have not I commanded thee? Be strong and of a good courage; be not afraid, neither be thou dismayed: for the LORD thy God is with thee whithersoever thou goest.",
	"Psalms 23:1":          "The LORD is my shepherd; I shall not want.",
	"Psalms 27:1":          "The LORD is my light and my salvation; whom shall I fear? the LORD is the strength of my life; of whom shall I be afraid?",
	"Psalms 34:18":         "The LORD is nigh unto them that are of a broken heart; and saveth such as be of a contrite spirit.",
	"Psalms 46:1":          "God is our refuge and strength, a very present help in trouble.",
	"Psalms 46:10":         "Be still, and know that I am God: I will be exalted among the heathen, I will be exalted in the earth.",
	"Psalms 119:105":       "Thy word is a lamp unto my feet, and a light unto my path.",
	"Psalms 136:1":         "O give thanks unto the LORD; for he is good: for his mercy endureth for ever.",
	"Proverbs 3:5-6":       "Trust in the LORD with all thine heart; and lean not unto thine own understanding. In all thy ways acknowledge him, and he shall direct thy paths.",
	"Proverbs 17:17":       "A friend loveth at all times, and a brother is born for adversity.",
	"Ecclesiastes 3:1":     "To every thing there is a season, and a time to every purpose under the heaven.",
	"Isaiah 40:31":         "But they that wait upon the LORD shall renew their strength; they shall mount up with wings as eagles; they shall run, and not be weary; and they shall walk, and not faint.",
	"Isaiah 41:10":         "Fear thou not; for I am with thee: be not dismayed; for I am thy God: I will strengthen thee; yea, I will help thee; yea, I will uphold thee with the right hand of my righteousness.",
	"Jeremiah 29:11":       "For I know the thoughts that I think toward you, saith the LORD, thoughts of peace, and not of evil, to give you an expected end.",
	"Lamentations 3:22-23": "It is of the LORD's mercies that we are not consumed, because his compassions fail not. They are new every morning: great is thy faithfulness.",
	"Micah 6:8":            "He hath shewed thee, O man, what is good; and what doth the LORD require of thee, but to do justly, and to love mercy, and to walk humbly with thy God?",
	"Matthew 5:44":         "But I say unto you, Love your enemies, bless them that curse you, do good to them that hate you, and pray for them which despitefully use you, and persecute you;",
	"Matthew 6:14":         "For if ye forgive men their trespasses, your heavenly Father will also forgive you:",
	"Matthew 6:33":         "But seek ye first the kingdom of God, and his righteousness; and all these things shall be added unto you.",
	"Matthew 11:28":        "Come unto me, all ye that labour and are heavy laden, and I will give you rest.",
	"Mark 11:25":           "And when ye stand praying, forgive, if ye have ought against any: that your Father also which is in heaven may forgive you your trespasses.",
	"Luke 6:37":            "Judge not, and ye shall not be judged: condemn not, and ye shall not be condemned: forgive, and ye shall be forgiven:",
	"John 3:16":            "For God so loved the world, that he gave his only begotten Son, that whosoever believeth in him should not perish, but have everlasting life.",
	"John 14:6":            "Jesus saith unto him, I am the way, the truth, and the life: no man cometh unto the Father, but by me.",
	"John 14:27":           "Peace I leave with you, my peace I give unto you: not as the world giveth, give I unto you. Let not your heart be troubled, neither let it be afraid.",
	"Romans 8:28":          "And we know that all things work together for good to them that love God, to them who are the called according to his purpose.",
	"Romans 12:2":          "And be not conformed to this world: but be ye transformed by the renewing of your mind, that ye may prove what is that good, and acceptable, and perfect, will of God.",
	"1 Corinthians 10:13":  "There hath no temptation taken you but such as is common to man: but God is faithful, who will not suffer you to be tempted above that ye are able; but will with the temptation also make a way to escape, that ye may be able to bear it.",
	"1 Corinthians 13:4":   "Charity suffereth long, and is kind; charity envieth not; charity vaunteth not itself, is not puffed up,",
	"Galatians 5:22-23":    "But the fruit of the Spirit is love, joy, peace, longsuffering, gentleness, goodness, faith, Meekness, temperance: against such there is no law.",
	"Ephesians 2:8":        "For by grace are ye saved through faith; and that not of yourselves: it is the gift of God:",
	"Ephesians 4:32":       "And be ye kind one to another, tenderhearted, forgiving one another, even as God for Christ's sake hath forgiven you.",
	"Philippians 4:6":      "Be careful for nothing; but in every thing by prayer and supplication with thanksgiving let your requests be made known unto God.",
	"Philippians 4:13":     "I can do all things through Christ which strengtheneth me.",
	"Colossians 3:13":      "Forbearing one another, and forgiving one another, if any man have a quarrel against any: even as Christ forgave you, so also do ye.",
	"1 Thessalonians 5:18": "In every thing give thanks: for this is the will of God in Christ Jesus concerning you.",
	"2 Timothy 1:7":        "For God hath not given us the spirit of fear; but of power, and of love, and of a sound mind.",
	"Hebrews 11:1":         "Now faith is the substance of things hoped for, the evidence of things not seen.",
	"Hebrews 13:5":         "Let your conversation be without covetousness; and be content with such things as ye have: for he hath said, I will never leave thee, nor forsake thee.",
	"James 1:5":            "If any of you lack wisdom, let him ask of God, that giveth to all men liberally, and upbraideth not; and it shall be given him.",
	"1 Peter 5:7":          "Casting all your care upon him; for he careth for you.",
	"1 John 1:9":           "If we confess our sins, he is faithful and just to forgive us our sins, and to cleanse us from all unrighteousness.",
	"1 John 4:19":          "We love him, because he first loved us.",
}

// topicIndex maps a topic keyword to its curated reference list. Keys are
// matched as substrings of the normalized lowercase query.
var topicIndex = map[string][]string{
	"forgiveness": {"Matthew 6:14", "Ephesians 4:32", "Colossians 3:13", "1 John 1:9", "Mark 11:25", "Luke 6:37"},
	"love":        {"John 3:16", "1 Corinthians 13:4", "1 John 4:19", "Matthew 5:44"},
	"faith":       {"Hebrews 11:1", "Ephesians 2:8", "Proverbs 3:5-6", "Romans 12:2"},
	"hope":        {"Jeremiah 29:11", "Romans 8:28", "Isaiah 40:31"},
	"peace":       {"John 14:27", "Philippians 4:6", "Psalms 46:10"},
	"strength":    {"Philippians 4:13", "Isaiah 41:10", "Psalms 46:1", "2 Timothy 1:7"},
	"fear":        {"Isaiah 41:10", "Psalms 27:1", "2 Timothy 1:7", "Joshua 1:9"},
	"anxiety":     {"Philippians 4:6", "1 Peter 5:7", "Matthew 11:28"},
	"wisdom":      {"James 1:5", "Proverbs 3:5-6", "Micah 6:8"},
	"comfort":     {"Psalms 34:18", "Matthew 11:28", "Psalms 23:1"},
	"gratitude":   {"1 Thessalonians 5:18", "Psalms 136:1", "Philippians 4:6"},
	"courage":     {"Joshua 1:9", "Deuteronomy 31:6", "Exodus 14:14"},
}
