package layout

import "testing"

const articleTemplateA = `<html><head><title>First Post</title></head><body>
<header><nav><a href="/">Home</a><a href="/blog">Blog</a></nav></header>
<main><article><h1>Shipping faster with queues</h1>
<p>Queues decouple producers from consumers.</p>
<p>They also smooth out load spikes.</p>
<img src="/a.png"><p>Closing thoughts.</p></article></main>
<footer><p>All rights reserved</p></footer></body></html>`

const articleTemplateB = `<html><head><title>Second Post</title></head><body>
<header><nav><a href="/">Home</a><a href="/blog">Blog</a></nav></header>
<main><article><h1>Reading the fine manual</h1>
<p>Documentation is a feature.</p>
<p>Undocumented behavior is a bug.</p>
<img src="/b.png"><p>Final words.</p></article></main>
<footer><p>All rights reserved</p></footer></body></html>`

const dashboardPage = `<html><head><title>Usage</title></head><body>
<aside><ul><li>Overview</li><li>Billing</li><li>Limits</li></ul></aside>
<section><table><thead><tr><th>Day</th><th>Requests</th></tr></thead>
<tbody><tr><td>Mon</td><td>120</td></tr><tr><td>Tue</td><td>98</td></tr>
<tr><td>Wed</td><td>143</td></tr></tbody></table></section>
<form><input type="text"><select><option>7d</option></select><button>Apply</button></form>
</body></html>`

func TestStructureHash_Deterministic(t *testing.T) {
	a := StructureHash(articleTemplateA)
	b := StructureHash(articleTemplateA)
	if a != b {
		t.Errorf("same document hashed twice: got %x and %x", a, b)
	}
}

func TestStructureHash_IgnoresTextContent(t *testing.T) {
	a := StructureHash(articleTemplateA)
	b := StructureHash(articleTemplateB)
	if a != b {
		t.Errorf("identical structure with different text: got %x and %x, want equal", a, b)
	}
}

func TestStructureHash_SeparatesDifferentTemplates(t *testing.T) {
	article := StructureHash(articleTemplateA)
	dashboard := StructureHash(dashboardPage)
	if d := Distance(article, dashboard); d <= DefaultTemplateThreshold {
		t.Errorf("unrelated templates at distance %d, want > %d", d, DefaultTemplateThreshold)
	}
}

func TestStructureHash_NoTags(t *testing.T) {
	if got := StructureHash(""); got != 0 {
		t.Errorf("empty input: got %x, want 0", got)
	}
	if got := StructureHash("plain text without any markup"); got != 0 {
		t.Errorf("tagless input: got %x, want 0", got)
	}
}

func TestStructureHash_ShortDocument(t *testing.T) {
	// Fewer tags than the shingle size must still produce a stable hash.
	a := StructureHash("<div><p>hi</p></div>")
	b := StructureHash("<div><p>bye</p></div>")
	if a == 0 {
		t.Fatal("short document hashed to zero")
	}
	if a != b {
		t.Errorf("same short structure: got %x and %x", a, b)
	}
}

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b uint64
		want int
	}{
		{"identical", 0xdeadbeef, 0xdeadbeef, 0},
		{"one bit", 0b1000, 0b0000, 1},
		{"two bits", 0b1011, 0b0010, 2},
		{"all bits", 0, ^uint64(0), 64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Distance(tt.a, tt.b); got != tt.want {
				t.Errorf("Distance(%x, %x) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSameTemplate(t *testing.T) {
	base := uint64(0)
	within := uint64(0b0111)          // 3 bits apart
	beyond := uint64(0b1111)          // 4 bits apart
	far := uint64(0xffffffffffffffff) // 64 bits apart

	if !SameTemplate(base, base, 0) {
		t.Error("identical hashes not matched with default threshold")
	}
	if !SameTemplate(base, within, 0) {
		t.Error("hash at default threshold not matched")
	}
	if SameTemplate(base, beyond, 0) {
		t.Error("hash beyond default threshold matched")
	}
	if SameTemplate(base, far, 0) {
		t.Error("distant hash matched with default threshold")
	}
	if !SameTemplate(base, beyond, 10) {
		t.Error("hash within explicit threshold not matched")
	}
}
