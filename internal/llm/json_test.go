package llm

import "testing"

func TestFirstJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bare object",
			in:   `{"category":"time_query"}`,
			want: `{"category":"time_query"}`,
		},
		{
			name: "markdown fence",
			in:   "好的，结果如下：\n```json\n{\"category\":\"route_planning\"}\n```",
			want: `{"category":"route_planning"}`,
		},
		{
			name: "nested objects",
			in:   `前缀 {"a":{"b":1},"c":[2]} 后缀 {"d":3}`,
			want: `{"a":{"b":1},"c":[2]}`,
		},
		{
			name: "braces inside strings",
			in:   `{"note":"带 } 的文本","x":1}`,
			want: `{"note":"带 } 的文本","x":1}`,
		},
		{
			name: "escaped quote inside string",
			in:   `{"note":"he said \"}\"","x":1}`,
			want: `{"note":"he said \"}\"","x":1}`,
		},
		{
			name: "no object",
			in:   "抱歉，我无法回答。",
			want: "",
		},
		{
			name: "unbalanced falls back to widest span",
			in:   `{"a":{"b":1}`,
			want: `{"a":{"b":1}`,
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FirstJSONObject(tt.in)
			if got != tt.want {
				t.Errorf("FirstJSONObject(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
