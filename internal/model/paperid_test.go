package model

import (
	"errors"
	"strings"
	"testing"
)

// TestNormalizePaperID tests identifier normalization for all accepted forms.
func TestNormalizePaperID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "native S2 ID lower case",
			input: "649def34f8be52c8b66281af98ae884c09aef38b",
			want:  "649def34f8be52c8b66281af98ae884c09aef38b",
		},
		{
			name:  "native S2 ID mixed case is lowered",
			input: "649DEF34F8BE52C8B66281AF98AE884C09AEF38B",
			want:  "649def34f8be52c8b66281af98ae884c09aef38b",
		},
		{
			name:  "surrounding whitespace is trimmed",
			input: "  649def34f8be52c8b66281af98ae884c09aef38b\n",
			want:  "649def34f8be52c8b66281af98ae884c09aef38b",
		},
		{
			name:  "DOI prefix",
			input: "DOI:10.18653/v1/N18-3011",
			want:  "DOI:10.18653/v1/N18-3011",
		},
		{
			name:  "lower case doi prefix is canonicalized",
			input: "doi:10.18653/v1/N18-3011",
			want:  "DOI:10.18653/v1/N18-3011",
		},
		{
			name:  "bare DOI gets prefix",
			input: "10.18653/v1/N18-3011",
			want:  "DOI:10.18653/v1/N18-3011",
		},
		{
			name:  "arXiv mixed case prefix",
			input: "arXiv:1706.03762",
			want:  "ARXIV:1706.03762",
		},
		{
			name:  "old style arXiv ID",
			input: "ARXIV:cs/9901002",
			want:  "ARXIV:cs/9901002",
		},
		{
			name:  "PMID",
			input: "PMID:19872477",
			want:  "PMID:19872477",
		},
		{
			name:  "PMCID",
			input: "pmcid:2323736",
			want:  "PMCID:2323736",
		},
		{
			name:  "ACL",
			input: "ACL:W12-3903",
			want:  "ACL:W12-3903",
		},
		{
			name:  "CorpusId spelling from the API docs",
			input: "CorpusId:215416146",
			want:  "CORPUSID:215416146",
		},
		{
			name:  "MAG",
			input: "MAG:112218234",
			want:  "MAG:112218234",
		},
		{
			name:  "URL prefix",
			input: "URL:https://arxiv.org/abs/2106.15928",
			want:  "URL:https://arxiv.org/abs/2106.15928",
		},
		{
			name:  "semanticscholar paper URL yields the S2 ID",
			input: "https://www.semanticscholar.org/paper/Attention-is-All-you-Need-Vaswani-Shazeer/204e3073870fae3d05bcbc2f6a8e263d9b72e776",
			want:  "204e3073870fae3d05bcbc2f6a8e263d9b72e776",
		},
		{
			name:  "plain https URL is wrapped",
			input: "https://arxiv.org/abs/2106.15928",
			want:  "URL:https://arxiv.org/abs/2106.15928",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := NormalizePaperID(tt.input)
			if err != nil {
				t.Fatalf("NormalizePaperID(%q) returned error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("NormalizePaperID(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestNormalizePaperIDErrors tests that malformed identifiers are rejected.
func TestNormalizePaperIDErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "empty", input: "", wantErr: ErrEmptyPaperID},
		{name: "whitespace only", input: "   ", wantErr: ErrEmptyPaperID},
		{name: "unknown prefix", input: "ISBN:12345", wantErr: ErrInvalidPaperID},
		{name: "non-numeric PMID", input: "PMID:abc", wantErr: ErrInvalidPaperID},
		{name: "non-numeric CorpusId", input: "CorpusId:12a", wantErr: ErrInvalidPaperID},
		{name: "DOI without slash", input: "DOI:10.1234", wantErr: ErrInvalidPaperID},
		{name: "short hex", input: "649def34f8be52c8", wantErr: ErrInvalidPaperID},
		{name: "hex with invalid char", input: "649def34f8be52c8b66281af98ae884c09aef38g", wantErr: ErrInvalidPaperID},
		{name: "empty prefix value", input: "DOI:", wantErr: ErrInvalidPaperID},
		{name: "value with spaces", input: "ACL:W12 3903", wantErr: ErrInvalidPaperID},
		{name: "URL prefix without scheme", input: "URL:example.com/paper", wantErr: ErrInvalidPaperID},
		{name: "semanticscholar URL without ID", input: "https://www.semanticscholar.org/", wantErr: ErrInvalidPaperID},
		{name: "free text", input: "attention is all you need", wantErr: ErrInvalidPaperID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NormalizePaperID(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NormalizePaperID(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

// TestNormalizePaperIDIdempotent verifies that normalizing an already
// normalized identifier returns it unchanged.
func TestNormalizePaperIDIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"649def34f8be52c8b66281af98ae884c09aef38b",
		"Doi:10.18653/v1/N18-3011",
		"arXiv:1706.03762",
		"pmid:19872477",
	}

	for _, input := range inputs {
		once, err := NormalizePaperID(input)
		if err != nil {
			t.Fatalf("first normalization of %q failed: %v", input, err)
		}
		twice, err := NormalizePaperID(once)
		if err != nil {
			t.Fatalf("second normalization of %q failed: %v", once, err)
		}
		if once != twice {
			t.Errorf("normalization not idempotent: %q -> %q -> %q", input, once, twice)
		}
	}
}

// TestNormalizePaperIDNoLowerCasingOfValues ensures external ID values keep
// their case (DOIs and ACL IDs are case-sensitive).
func TestNormalizePaperIDNoLowerCasingOfValues(t *testing.T) {
	t.Parallel()

	got, err := NormalizePaperID("doi:10.18653/v1/N18-3011")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "N18-3011") {
		t.Errorf("DOI value case was altered: %q", got)
	}
}
