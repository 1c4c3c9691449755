package analyzer

// Stem reduces word to its Porter stem. It implements the classic
// Porter algorithm (M. Porter, 1980) in its five numbered steps
// (1a/1b/1c, 2, 3, 4, 5a/5b), operating on a mutable byte buffer per
// call so a single Stem invocation is safe to run concurrently with
// any other. Words of length two or less pass through unchanged, as do
// words containing anything outside ASCII lowercase letters (tokenizer
// output is lower-case letters and digits, so a token containing a
// digit comes back unchanged).
func Stem(word string) string {
	if len(word) <= 2 {
		return word
	}
	for _, r := range word {
		if r < 'a' || r > 'z' {
			return word
		}
	}

	s := &stemmer{buf: []byte(word)}
	s.step1a()
	s.step1b()
	s.step1c()
	s.step2()
	s.step3()
	s.step4()
	s.step5a()
	s.step5b()
	return string(s.buf)
}

// stemmer holds the mutable working buffer for one Stem call.
type stemmer struct {
	buf []byte
}

// isConsonant reports whether buf[i] is a consonant under Porter's
// definition: any letter that is not a vowel, where 'y' is a consonant
// only when not preceded by a consonant.
func (s *stemmer) isConsonant(i int) bool {
	switch s.buf[i] {
	case 'a', 'e', 'i', 'o', 'u':
		return false
	case 'y':
		if i == 0 {
			return true
		}
		return !s.isConsonant(i - 1)
	default:
		return true
	}
}

// measure computes m, the number of consonant-vowel sequences (VC)
// preceding the cutoff index end (exclusive) in buf, per Porter's [C](VC){m}[V] form.
func (s *stemmer) measure(end int) int {
	i := 0
	n := end
	// skip leading consonants
	for i < n && s.isConsonant(i) {
		i++
	}
	m := 0
	for i < n {
		// skip vowels
		for i < n && !s.isConsonant(i) {
			i++
		}
		if i >= n {
			break
		}
		// skip consonants
		for i < n && s.isConsonant(i) {
			i++
		}
		m++
	}
	return m
}

// containsVowel reports whether buf[:end] contains a vowel.
func (s *stemmer) containsVowel(end int) bool {
	for i := 0; i < end; i++ {
		if !s.isConsonant(i) {
			return true
		}
	}
	return false
}

// endsDoubleConsonant reports whether buf ends in two identical
// consonants (e.g. "tt", "ss").
func (s *stemmer) endsDoubleConsonant() bool {
	n := len(s.buf)
	if n < 2 {
		return false
	}
	if s.buf[n-1] != s.buf[n-2] {
		return false
	}
	return s.isConsonant(n - 1)
}

// endsCVC reports whether buf ends in consonant-vowel-consonant where
// the final consonant is not w, x, or y (the "cat", "hop" pattern used
// to decide whether to add a final 'e').
func (s *stemmer) endsCVC() bool {
	n := len(s.buf)
	if n < 3 {
		return false
	}
	if !s.isConsonant(n-3) || s.isConsonant(n-2) || !s.isConsonant(n-1) {
		return false
	}
	switch s.buf[n-1] {
	case 'w', 'x', 'y':
		return false
	}
	return true
}

// hasSuffix reports whether buf ends with suffix.
func (s *stemmer) hasSuffix(suffix string) bool {
	n := len(s.buf)
	if n < len(suffix) {
		return false
	}
	return string(s.buf[n-len(suffix):]) == suffix
}

// replaceSuffix removes the last suffixLen bytes of buf and appends
// replacement.
func (s *stemmer) replaceSuffix(suffixLen int, replacement string) {
	s.buf = append(s.buf[:len(s.buf)-suffixLen], replacement...)
}

// measureAfterRemoving returns the "m" measure of the stem obtained by
// removing suffixLen bytes from the end of buf.
func (s *stemmer) measureAfterRemoving(suffixLen int) int {
	return s.measure(len(s.buf) - suffixLen)
}

// step1a handles plurals: sses->ss, ies->i, ss->ss, s->"".
func (s *stemmer) step1a() {
	switch {
	case s.hasSuffix("sses"):
		s.replaceSuffix(4, "ss")
	case s.hasSuffix("ies"):
		s.replaceSuffix(3, "i")
	case s.hasSuffix("ss"):
		// unchanged
	case s.hasSuffix("s"):
		s.replaceSuffix(1, "")
	}
}

// step1b handles -ed and -ing, with cleanup when they are removed.
func (s *stemmer) step1b() {
	switch {
	case s.hasSuffix("eed"):
		if s.measureAfterRemoving(3) > 0 {
			s.replaceSuffix(3, "ee")
		}
		return
	case s.hasSuffix("ed") && s.containsVowel(len(s.buf)-2):
		s.replaceSuffix(2, "")
	case s.hasSuffix("ing") && s.containsVowel(len(s.buf)-3):
		s.replaceSuffix(3, "")
	default:
		return
	}
	s.step1bCleanup()
}

func (s *stemmer) step1bCleanup() {
	switch {
	case s.hasSuffix("at"):
		s.replaceSuffix(2, "ate")
	case s.hasSuffix("bl"):
		s.replaceSuffix(2, "ble")
	case s.hasSuffix("iz"):
		s.replaceSuffix(2, "ize")
	case s.endsDoubleConsonant() && !s.hasSuffix("l") && !s.hasSuffix("s") && !s.hasSuffix("z"):
		s.buf = s.buf[:len(s.buf)-1]
	case s.measure(len(s.buf)) == 1 && s.endsCVC():
		s.buf = append(s.buf, 'e')
	}
}

// step1c turns a trailing y into i when the stem before it contains a
// vowel.
func (s *stemmer) step1c() {
	n := len(s.buf)
	if n == 0 || s.buf[n-1] != 'y' {
		return
	}
	if s.containsVowel(n - 1) {
		s.buf[n-1] = 'i'
	}
}

type suffixRule struct {
	suffix      string
	replacement string
	minMeasure  int
}

// step2 maps a broad set of double-suffix endings to single-suffix
// forms when the stem measure condition is met.
func (s *stemmer) step2() {
	rules := []suffixRule{
		{"ational", "ate", 1},
		{"tional", "tion", 1},
		{"enci", "ence", 1},
		{"anci", "ance", 1},
		{"izer", "ize", 1},
		{"abli", "able", 1},
		{"alli", "al", 1},
		{"entli", "ent", 1},
		{"eli", "e", 1},
		{"ousli", "ous", 1},
		{"ization", "ize", 1},
		{"ation", "ate", 1},
		{"ator", "ate", 1},
		{"alism", "al", 1},
		{"iveness", "ive", 1},
		{"fulness", "ful", 1},
		{"ousness", "ous", 1},
		{"aliti", "al", 1},
		{"iviti", "ive", 1},
		{"biliti", "ble", 1},
	}
	s.applyRules(rules)
}

// step3 continues the step-2 family of mappings.
func (s *stemmer) step3() {
	rules := []suffixRule{
		{"icate", "ic", 1},
		{"ative", "", 1},
		{"alize", "al", 1},
		{"iciti", "ic", 1},
		{"ical", "ic", 1},
		{"ful", "", 1},
		{"ness", "", 1},
	}
	s.applyRules(rules)
}

// step4 strips a final battery of common suffixes when the remaining
// stem has measure > 1.
func (s *stemmer) step4() {
	rules := []struct {
		suffix     string
		needsST    bool // "ion" requires the preceding letter to be s or t
	}{
		{"al", false}, {"ance", false}, {"ence", false}, {"er", false},
		{"ic", false}, {"able", false}, {"ible", false}, {"ant", false},
		{"ement", false}, {"ment", false}, {"ent", false}, {"ion", true},
		{"ou", false}, {"ism", false}, {"ate", false}, {"iti", false},
		{"ous", false}, {"ive", false}, {"ize", false},
	}
	for _, r := range rules {
		if !s.hasSuffix(r.suffix) {
			continue
		}
		cut := len(r.suffix)
		if r.needsST {
			n := len(s.buf)
			if n-cut-1 < 0 {
				continue
			}
			prev := s.buf[n-cut-1]
			if prev != 's' && prev != 't' {
				continue
			}
		}
		if s.measureAfterRemoving(cut) > 1 {
			s.replaceSuffix(cut, "")
		}
		return
	}
}

// step5a drops a final 'e' when the stem measure allows it.
func (s *stemmer) step5a() {
	if !s.hasSuffix("e") {
		return
	}
	m := s.measureAfterRemoving(1)
	if m > 1 {
		s.replaceSuffix(1, "")
		return
	}
	if m == 1 && !s.endsCVCWithoutFinal() {
		s.replaceSuffix(1, "")
	}
}

// endsCVCWithoutFinal checks the endsCVC condition against buf with
// its final character removed (used by step5a, which operates on the
// word as it would be after the 'e' is stripped).
func (s *stemmer) endsCVCWithoutFinal() bool {
	saved := s.buf
	s.buf = s.buf[:len(s.buf)-1]
	result := s.endsCVC()
	s.buf = saved
	return result
}

// step5b removes a final double 'l' when the stem measure exceeds 1.
func (s *stemmer) step5b() {
	n := len(s.buf)
	if n < 2 || s.buf[n-1] != 'l' || s.buf[n-2] != 'l' {
		return
	}
	if s.measure(len(s.buf)) > 1 {
		s.buf = s.buf[:len(s.buf)-1]
	}
}

func (s *stemmer) applyRules(rules []suffixRule) {
	for _, r := range rules {
		if !s.hasSuffix(r.suffix) {
			continue
		}
		if s.measureAfterRemoving(len(r.suffix)) >= r.minMeasure {
			s.replaceSuffix(len(r.suffix), r.replacement)
		}
		return
	}
}
