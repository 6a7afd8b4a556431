package normalize

import (
	"errors"
	"strings"
	"testing"

	"github.com/cognicore/licmatch/pkg/licmatch/internalerr"
)

const mitText = `MIT License

Copyright (c) 2019 Jane Doe

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.
`

const bsdText = `Copyright (c) <year> <owner>. All rights reserved.

Redistribution and use in source and binary forms, with or without
modification, are permitted provided that the following conditions are met:

1. Redistributions of source code must retain the above copyright notice,
   this list of conditions and the following disclaimer.

2. Redistributions in binary form must reproduce the above copyright notice,
   this list of conditions and the following disclaimer in the documentation
   and/or other materials provided with the distribution.

THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS".
See https://opensource.org/licenses/BSD-2-Clause for details.
`

const apacheTail = `Licensed under the Apache License, Version 2.0.

   You may obtain a copy of the License at
   http://www.apache.org/licenses/LICENSE-2.0

   END OF TERMS AND CONDITIONS

   APPENDIX: How to apply the Apache License to your work.
`

func TestNormalizeEmpty(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\n\t  \n"} {
		if got := Normalize(in); got != "" {
			t.Errorf("Normalize(%q) = %q, want empty", in, got)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	samples := []string{
		mitText,
		bsdText,
		apacheTail,
		"This is the colour of the licence.\n(a) first\n(b) second",
		"We fulfil our fulfilment whilst the owner is wilful.",
		"We fulfill our fulfillment wilfully.",
		"You may sub-licence the work.",
		"You may sub licence the work.",
		"Terms: (a) 1. the grant",
		"x * 1. y",
		"Conditions:\n(i) a. keep notices\n* (2) share alike",
		"sub\nlicense per\tcent non-commercial",
		"Line one 1. item # trailing comment\n#\nnext line",
	}
	for i, s := range samples {
		once := Normalize(s)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("sample %d not idempotent:\n once: %q\ntwice: %q", i, once, twice)
		}
	}
}

func TestNormalizeSpellingVariants(t *testing.T) {
	a := Normalize("This is the colour of the licence.")
	b := Normalize("This is the color of the license.")
	if a != b {
		t.Errorf("spelling variants differ: %q vs %q", a, b)
	}
	if a != "this is the color of the license." {
		t.Errorf("Normalize = %q", a)
	}

	if Normalize("grey area") == Normalize("gray area") {
		t.Fatal("grey should not be in the built-in dictionary")
	}
	n := New(WithVariants(Variant{From: "Grey", To: "gray"}))
	if got, want := n.Normalize("grey area"), n.Normalize("gray area"); got != want {
		t.Errorf("extra variant not applied: %q vs %q", got, want)
	}
}

func TestNormalizeChainedVariants(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"you may sub-licence the work", "you may sublicense the work"},
		{"you may sub licence the work", "you may sublicense the work"},
		{"you may sub-license the work", "you may sublicense the work"},
		{"their favourite colour", "their favorite color"},
		{"fulfilment and fulfillment", "fulfillment and fulfillment"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeMixedBullets(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"terms: (a) 1. the grant", "terms: the grant"},
		{"x * 1. y", "x y"},
		{"x (iv) * b. y", "x y"},
		{"x (a)  1. y", "x y"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeURLInvariance(t *testing.T) {
	a := Normalize("See https://example.com/a")
	b := Normalize("See https://example.org/b")
	if a != b {
		t.Errorf("URL variants differ: %q vs %q", a, b)
	}
	if a != "see "+URLPlaceholder {
		t.Errorf("Normalize = %q", a)
	}
}

func TestNormalizeMITTitleAndCopyright(t *testing.T) {
	got := Normalize(mitText)
	if strings.HasPrefix(got, "mit license") {
		t.Errorf("title line should be dropped: %q", got[:40])
	}
	if strings.Contains(got, "jane doe") {
		t.Errorf("copyright notice should be dropped")
	}
	if !strings.HasPrefix(got, "permission is hereby granted") {
		t.Errorf("unexpected start: %q", got[:40])
	}
	if strings.ContainsAny(got, "\n\t") || strings.Contains(got, "  ") {
		t.Errorf("whitespace not collapsed")
	}
}

func TestNormalizeBulletStyles(t *testing.T) {
	numbered := "Terms:\n1. Keep notices.\n2. Share alike."
	lettered := "Terms:\n(a) Keep notices.\n(b) Share alike."
	starred := "Terms:\n* Keep notices.\n* Share alike."
	roman := "Terms:\n(i) Keep notices.\n(ii) Share alike."

	want := Normalize(numbered)
	for _, in := range []string{lettered, starred, roman} {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
	if want != "terms: keep notices. share alike." {
		t.Errorf("unexpected canonical form %q", want)
	}
}

func TestNormalizeEndOfTermsAndAppendix(t *testing.T) {
	got := Normalize(apacheTail)
	if strings.Contains(got, "appendix") || strings.Contains(got, "end of terms") {
		t.Errorf("trailing boilerplate kept: %q", got)
	}
}

func TestNormalizeSourceHeader(t *testing.T) {
	prose := "Permission is granted.\nNo warranty is given."
	header := "Permission is granted.\n// generated file, do not edit\nNo warranty is given."
	if Normalize(prose) != Normalize(header) {
		t.Errorf("comment line should be ignored:\n%q\n%q", Normalize(prose), Normalize(header))
	}
}

func TestNormalizeCopyrightSymbol(t *testing.T) {
	for _, sym := range []string{"©", "Ⓒ", "ⓒ"} {
		if got := FixCopyrightSymbol("text " + sym + " more"); got != "text (C) more" {
			t.Errorf("FixCopyrightSymbol(%q) = %q", sym, got)
		}
	}
}

func TestNormalizeOwnerHolder(t *testing.T) {
	if got := Normalize("the owner and the holder"); got != "the holder and the holder" {
		t.Errorf("Normalize = %q", got)
	}
}

func TestNormalizeUnicodeComposition(t *testing.T) {
	composed := "licens\u00e9"
	decomposed := "license\u0301"
	if Normalize(composed) != Normalize(decomposed) {
		t.Errorf("NFC composition not applied")
	}
}

func TestRuleOrder(t *testing.T) {
	var names []string
	for _, r := range DefaultRules() {
		names = append(names, r.Name)
	}
	want := "unicode,url,comments,end-of-terms,appendix,copyright-symbol,copyright-notice,lowercase,title,bullets,variants,whitespace"
	if got := strings.Join(names, ","); got != want {
		t.Errorf("rule order = %s", got)
	}
}

func TestStripTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"the mit license\nbody", "body"},
		{"preamble\nbody license", "preamble\nbody license"},
		{"single line license text", "single line license text"},
	}
	for _, tt := range tests {
		if got := StripTitle(tt.in); got != tt.want {
			t.Errorf("StripTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUnescape(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`line one\nline two`, "line one\nline two"},
		{`tab\there`, "tab\there"},
		{`quote \"x\"`, `quote "x"`},
		{"\u00e9t\\xe9", "\u00e9t\u00e9"},
		{`octal \101`, "octal A"},
		{`unknown \q escape`, `unknown \q escape`},
		{`trailing \`, `trailing \`},
		{`bad \x4`, `bad \x4`},
		{`C:\Users\me`, `C:\Users\me`},
		{`surrogate \ud800 kept`, `surrogate \ud800 kept`},
		{`\u00e9 then \xzz`, "\u00e9 then \\xzz"},
		{"no escapes at all", "no escapes at all"},
	}
	for _, tt := range tests {
		got, err := Unescape([]byte(tt.in))
		if err != nil {
			t.Errorf("Unescape(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Unescape(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUnescapeErrors(t *testing.T) {
	inputs := [][]byte{
		{'o', 'k', 0xff, 0xfe},
		{0xc3},
		append([]byte(`\n escaped then `), 0x80),
	}
	for _, in := range inputs {
		_, err := Unescape(in)
		if err == nil {
			t.Errorf("Unescape(%q) expected error", in)
			continue
		}
		if !errors.Is(err, internalerr.ErrInputDecoding) {
			t.Errorf("Unescape(%q) error %v should wrap ErrInputDecoding", in, err)
		}
		var de *DecodeError
		if !errors.As(err, &de) {
			t.Errorf("Unescape(%q) error should be *DecodeError", in)
		}
	}
}
